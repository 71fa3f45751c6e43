package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fetcher is the read side of the daemon API. *Client implements it; tests
// substitute fakes.
type Fetcher interface {
	FetchState(ctx context.Context) (PlayerState, error)
	FetchStreams(ctx context.Context) ([]StreamDescriptor, error)
	FetchPlaylists(ctx context.Context) ([]PlaylistDescriptor, error)
	FetchTracks(ctx context.Context, playlistIndex int) ([]TrackDescriptor, error)
	FetchQueue(ctx context.Context) ([]QueueEntry, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the player daemon's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client // bounded reads and commands
	stream    *http.Client // notifications and uploads, no overall timeout
	userAgent string
}

const (
	defaultAPIBind        = "127.0.0.1:8080"
	defaultUserAgent      = "tonearm/0.1"
	defaultRequestTimeout = 10 * time.Second
)

// NewClient builds a Client using the provided apiBind host:port or URL.
// A non-positive timeout selects the default.
func NewClient(apiBind string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		stream:    &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// SetVersion sets the version reported in the User-Agent header.
func (c *Client) SetVersion(version string) {
	version = strings.TrimSpace(version)
	if c == nil || version == "" {
		return
	}
	c.userAgent = "tonearm/" + version
}

// BaseURL returns the normalized daemon address.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchState retrieves the current player state.
func (c *Client) FetchState(ctx context.Context) (PlayerState, error) {
	if c == nil {
		return PlayerState{}, fmt.Errorf("client is nil")
	}
	var state PlayerState
	if err := c.getJSON(ctx, "/api/state", &state); err != nil {
		return PlayerState{}, err
	}
	return state, nil
}

// FetchStreams retrieves the stream catalog.
func (c *Client) FetchStreams(ctx context.Context) ([]StreamDescriptor, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var streams []StreamDescriptor
	if err := c.getJSON(ctx, "/api/streams", &streams); err != nil {
		return nil, err
	}
	return nonNil(streams), nil
}

// FetchPlaylists retrieves the playlist catalog.
func (c *Client) FetchPlaylists(ctx context.Context) ([]PlaylistDescriptor, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var playlists []PlaylistDescriptor
	if err := c.getJSON(ctx, "/api/playlists", &playlists); err != nil {
		return nil, err
	}
	return nonNil(playlists), nil
}

// FetchTracks retrieves the tracks of one playlist.
func (c *Client) FetchTracks(ctx context.Context, playlistIndex int) ([]TrackDescriptor, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var tracks []TrackDescriptor
	path := "/api/playlist/" + strconv.Itoa(playlistIndex) + "/tracks"
	if err := c.getJSON(ctx, path, &tracks); err != nil {
		return nil, err
	}
	return nonNil(tracks), nil
}

// FetchQueue retrieves the play queue.
func (c *Client) FetchQueue(ctx context.Context) ([]QueueEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var queue []QueueEntry
	if err := c.getJSON(ctx, "/api/queue", &queue); err != nil {
		return nil, err
	}
	return nonNil(queue), nil
}

// FetchStreamLogo retrieves the raw logo asset of a stream.
func (c *Client) FetchStreamLogo(ctx context.Context, name string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("stream name required")
	}
	rel := &url.URL{
		Path:    "/api/stream-logo/" + name,
		RawPath: "/api/stream-logo/" + url.PathEscape(name),
	}
	resp, err := c.send(ctx, c.http, http.MethodGet, rel, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	return data, nil
}

// Post issues a command. A nil body sends an empty request; anything else is
// encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	resp, err := c.send(ctx, c.http, http.MethodPost, &url.URL{Path: path}, reader, contentType)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Subscribe opens the notifications channel. The caller owns the returned
// stream and must Close it.
func (c *Client) Subscribe(ctx context.Context) (*EventStream, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/notifications"}
	req, err := c.newRequest(ctx, http.MethodGet, rel, nil, "")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(http.MethodGet, rel.String(), resp)
	}
	return newEventStream(resp.Body, req.Header.Get("X-Request-Id")), nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := c.send(ctx, c.http, http.MethodGet, &url.URL{Path: path}, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send executes a request and turns non-2xx responses into *APIError. On
// success the caller closes the body.
func (c *Client) send(ctx context.Context, hc *http.Client, method string, rel *url.URL, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, rel, body, contentType)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(method, rel.EscapedPath(), resp)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", newRequestID())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_bind %q: missing host", apiBind)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
