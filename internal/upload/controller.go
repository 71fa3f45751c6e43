// Package upload validates and submits bulk FLAC playlist uploads.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
)

// Phase is the controller's position in its state machine.
type Phase int

const (
	Idle Phase = iota
	Validating
	Uploading
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Validating:
		return "validating"
	case Uploading:
		return "uploading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Validation messages.
const (
	MsgNameRequired = "Playlist name is required"
	MsgNoFiles      = "Select at least one file"
	msgNotFLAC      = "Only .flac files are allowed: "
)

// DefaultClearDelay is how long a Success status stays before returning to Idle.
const DefaultClearDelay = 3 * time.Second

// ErrBusy is returned when a submit arrives while another is in progress.
var ErrBusy = errors.New("upload already in progress")

// ValidationError is a local validation failure. No request was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Status is what the form displays.
type Status struct {
	Phase   Phase
	Message string
	Attempt uint64
}

// Busy reports whether the submit control should be disabled.
func (s Status) Busy() bool {
	return s.Phase == Validating || s.Phase == Uploading
}

// Uploader sends a playlist to the daemon. *api.Client implements it.
type Uploader interface {
	UploadPlaylist(ctx context.Context, name string, files []api.UploadFile) error
}

// Options configures a Controller.
type Options struct {
	ClearDelay time.Duration
	Logger     zerolog.Logger
}

// Controller validates and submits playlist uploads. It never refreshes the
// playlist catalog; the daemon announces the new playlist through a
// libraryUpdated event.
type Controller struct {
	uploader   Uploader
	logger     zerolog.Logger
	clearDelay time.Duration

	mu        sync.Mutex
	status    Status
	busy      bool
	listeners []func(Status)
	clear     *time.Timer
}

// New returns a Controller posting through uploader.
func New(uploader Uploader, opts Options) *Controller {
	delay := opts.ClearDelay
	if delay <= 0 {
		delay = DefaultClearDelay
	}
	return &Controller{uploader: uploader, logger: opts.Logger, clearDelay: delay}
}

// Subscribe registers fn for every status change. Listeners cannot be removed;
// the controller lives as long as the UI.
func (c *Controller) Subscribe(fn func(Status)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Submit validates name and paths and uploads them. It blocks until the
// upload finishes. Paths naming a directory contribute the regular files
// directly inside it.
func (c *Controller) Submit(ctx context.Context, name string, paths []string) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.stopClearLocked()
	attempt := c.status.Attempt + 1
	c.mu.Unlock()
	defer c.release()

	c.set(Status{Phase: Validating, Attempt: attempt})

	trimmed := strings.TrimSpace(name)
	files, err := validate(trimmed, paths)
	if err != nil {
		c.set(Status{Phase: Failed, Message: err.Error(), Attempt: attempt})
		return err
	}

	c.set(Status{Phase: Uploading, Message: fmt.Sprintf("Uploading %d %s…", len(files), plural(len(files), "file", "files")), Attempt: attempt})
	if c.uploader == nil {
		err = errors.New("not connected")
	} else {
		err = c.uploader.UploadPlaylist(ctx, trimmed, files)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("playlist", trimmed).Int("files", len(files)).Msg("upload failed")
		c.set(Status{Phase: Failed, Message: "Upload failed: " + reason(err), Attempt: attempt})
		return fmt.Errorf("upload playlist: %w", err)
	}

	c.logger.Info().Str("playlist", trimmed).Int("files", len(files)).Msg("upload complete")
	c.set(Status{Phase: Success, Message: fmt.Sprintf("Uploaded %s (%d %s)", trimmed, len(files), plural(len(files), "file", "files")), Attempt: attempt})
	c.scheduleClear(attempt)
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) set(st Status) {
	c.mu.Lock()
	c.status = st
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// scheduleClear returns a Success status to Idle unless a newer attempt has
// replaced it by then.
func (c *Controller) scheduleClear(attempt uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopClearLocked()
	c.clear = time.AfterFunc(c.clearDelay, func() {
		c.mu.Lock()
		if c.status.Attempt != attempt || c.status.Phase != Success {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.set(Status{Phase: Idle, Attempt: attempt})
	})
}

func (c *Controller) stopClearLocked() {
	if c.clear != nil {
		c.clear.Stop()
		c.clear = nil
	}
}

// validate checks, in order: name, file count, extensions. It returns the
// files to send.
func validate(name string, paths []string) ([]api.UploadFile, error) {
	if name == "" {
		return nil, &ValidationError{Message: MsgNameRequired}
	}
	expanded, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, &ValidationError{Message: MsgNoFiles}
	}
	files := make([]api.UploadFile, 0, len(expanded))
	for _, path := range expanded {
		base := filepath.Base(path)
		if !IsFLAC(base) {
			return nil, &ValidationError{Message: msgNotFLAC + base}
		}
		files = append(files, api.LocalFile(path))
	}
	return files, nil
}

// IsFLAC reports whether name has a .flac extension, ignoring case.
func IsFLAC(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".flac")
}

func expandPaths(paths []string) ([]string, error) {
	var out []string
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("Cannot read %s", path)}
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("Cannot read %s", path)}
		}
		// ReadDir returns entries sorted by name.
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				out = append(out, filepath.Join(path, entry.Name()))
			}
		}
	}
	return out, nil
}

func reason(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason()
	}
	return err.Error()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
