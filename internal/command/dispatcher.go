// Package command issues one-way commands to the player daemon.
//
// Playback commands are fire-and-forget: a failure is logged and nothing
// else happens. The daemon confirms every accepted command later through the
// push channel, so no method here touches the state store. Queue commands
// are the exception and return a *QueueError the UI shows inline.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
)

// Poster sends a command to the daemon. *api.Client implements it.
type Poster interface {
	Post(ctx context.Context, path string, body any) error
}

// Dispatcher maps user intents onto daemon command endpoints. Indices are
// passed through unchecked; the daemon owns bounds validation.
type Dispatcher struct {
	client Poster
	logger zerolog.Logger
}

// New returns a Dispatcher posting through client.
func New(client Poster, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// PlayStream starts the stream at index.
func (d *Dispatcher) PlayStream(ctx context.Context, index int) {
	d.fire(ctx, "play stream", "/api/play/stream/"+strconv.Itoa(index))
}

// PlayPlaylist starts a playlist from its first track.
func (d *Dispatcher) PlayPlaylist(ctx context.Context, index int) {
	d.fire(ctx, "play playlist", "/api/play/playlist/"+strconv.Itoa(index))
}

// PlayTrack starts a playlist at one of its tracks.
func (d *Dispatcher) PlayTrack(ctx context.Context, playlist, track int) {
	d.fire(ctx, "play track", "/api/play/playlist/"+strconv.Itoa(playlist)+"/"+strconv.Itoa(track))
}

func (d *Dispatcher) TogglePause(ctx context.Context) { d.fire(ctx, "pause", "/api/play/pause") }
func (d *Dispatcher) Stop(ctx context.Context)        { d.fire(ctx, "stop", "/api/stop") }
func (d *Dispatcher) Next(ctx context.Context)        { d.fire(ctx, "next", "/api/next") }
func (d *Dispatcher) Previous(ctx context.Context)    { d.fire(ctx, "previous", "/api/previous") }

// Enqueue appends a playlist track to the queue.
func (d *Dispatcher) Enqueue(ctx context.Context, playlist, track int) error {
	body := api.QueueAddRequest{PlaylistIndex: playlist, TrackIndex: track}
	return d.queue(ctx, QueueAdd, "/api/queue/add", body)
}

// Dequeue removes the entry at a zero-based queue position.
func (d *Dispatcher) Dequeue(ctx context.Context, position int) error {
	return d.queue(ctx, QueueRemove, "/api/queue/remove/"+strconv.Itoa(position), nil)
}

// ClearQueue empties the queue.
func (d *Dispatcher) ClearQueue(ctx context.Context) error {
	return d.queue(ctx, QueueClear, "/api/queue/clear", nil)
}

func (d *Dispatcher) fire(ctx context.Context, name, path string) {
	if d == nil || d.client == nil {
		return
	}
	if err := d.client.Post(ctx, path, nil); err != nil {
		d.logger.Error().Err(err).Str("command", name).Str("path", path).Msg("command failed")
		return
	}
	d.logger.Debug().Str("command", name).Msg("command sent")
}

func (d *Dispatcher) queue(ctx context.Context, op QueueOp, path string, body any) error {
	if d == nil || d.client == nil {
		return &QueueError{Op: op, Err: errors.New("not connected")}
	}
	if err := d.client.Post(ctx, path, body); err != nil {
		d.logger.Warn().Err(err).Str("op", op.String()).Str("path", path).Msg("queue command rejected")
		return &QueueError{Op: op, Err: err}
	}
	d.logger.Debug().Str("op", op.String()).Msg("queue command sent")
	return nil
}

// QueueOp identifies a queue mutation.
type QueueOp int

const (
	QueueAdd QueueOp = iota
	QueueRemove
	QueueClear
)

func (o QueueOp) String() string {
	switch o {
	case QueueAdd:
		return "add"
	case QueueRemove:
		return "remove"
	case QueueClear:
		return "clear"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// QueueError is a failed queue command. Its Error text is meant for display.
type QueueError struct {
	Op  QueueOp
	Err error
}

func (e *QueueError) Error() string {
	return e.verb() + ": " + reason(e.Err)
}

func (e *QueueError) Unwrap() error { return e.Err }

func (e *QueueError) verb() string {
	switch e.Op {
	case QueueAdd:
		return "Could not add to queue"
	case QueueRemove:
		return "Could not remove from queue"
	default:
		return "Could not clear queue"
	}
}

// reason prefers the daemon's own message over transport detail.
func reason(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason()
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
