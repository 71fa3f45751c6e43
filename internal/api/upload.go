package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Multipart field names of POST /api/upload-playlist.
const (
	UploadNameField = "name"
	UploadFileField = "files"
)

// UploadFile is one file part of a playlist upload.
type UploadFile struct {
	Name string // base name sent to the daemon
	Open func() (io.ReadCloser, error)
}

// LocalFile describes a file on disk as an UploadFile.
func LocalFile(path string) UploadFile {
	return UploadFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// UploadPlaylist streams a multipart body holding the playlist name and
// every file. Files are read lazily while the request is being written.
func (c *Client) UploadPlaylist(ctx context.Context, name string, files []UploadFile) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadBody(mw, name, files))
	}()

	resp, err := c.send(ctx, c.stream, http.MethodPost, &url.URL{Path: "/api/upload-playlist"}, pr, mw.FormDataContentType())
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func writeUploadBody(mw *multipart.Writer, name string, files []UploadFile) error {
	if err := mw.WriteField(UploadNameField, name); err != nil {
		return fmt.Errorf("write name field: %w", err)
	}
	for _, f := range files {
		if err := writeUploadFile(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeUploadFile(mw *multipart.Writer, f UploadFile) error {
	if f.Open == nil {
		return fmt.Errorf("upload %s: no content", f.Name)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadFileField, escapeQuotes(f.Name)))
	header.Set("Content-Type", "audio/flac")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create part %s: %w", f.Name, err)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
