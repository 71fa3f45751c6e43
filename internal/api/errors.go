package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 * 1024

// APIError is a non-success response from the daemon.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string // server supplied reason, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// Reason returns the text to show a user: the server's message when it sent
// one, otherwise the HTTP status text.
func (e *APIError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", e.Status)
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: errorMessage(raw),
	}
}

// errorMessage prefers a JSON {"error": "..."} or {"message": "..."} body
// and falls back to the trimmed text.
func errorMessage(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
	}
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}
