// Package media publishes the remote player on the desktop media session and
// routes media keys back into playback commands.
package media

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
)

// PlaybackState is the state shown by the desktop.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

// Metadata is the now-playing description.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	ArtURL string
}

// Session is an OS media session.
type Session interface {
	// Update publishes a new state and description.
	Update(state PlaybackState, metadata Metadata) error

	// SetCommandHandler sets the handler for media key presses.
	SetCommandHandler(handler CommandHandler)

	Close() error
}

// Command is a media key press.
type Command int

const (
	CmdPlay Command = iota
	CmdPause
	CmdPlayPause
	CmdStop
	CmdNext
	CmdPrevious
)

// String returns the command name
func (c Command) String() string {
	switch c {
	case CmdPlay:
		return "Play"
	case CmdPause:
		return "Pause"
	case CmdPlayPause:
		return "PlayPause"
	case CmdStop:
		return "Stop"
	case CmdNext:
		return "Next"
	case CmdPrevious:
		return "Previous"
	default:
		return "Unknown"
	}
}

// CommandHandler handles media commands from the OS.
type CommandHandler interface {
	OnCommand(cmd Command)
}

// CommandHandlerFunc is a function adapter for CommandHandler.
type CommandHandlerFunc func(cmd Command)

func (f CommandHandlerFunc) OnCommand(cmd Command) { f(cmd) }

// NoOpSession is used when no media session is available.
type NoOpSession struct{}

func (NoOpSession) Update(PlaybackState, Metadata) error { return nil }
func (NoOpSession) SetCommandHandler(CommandHandler)     {}
func (NoOpSession) Close() error                         { return nil }

// Describe maps a player state onto what the desktop shows.
func Describe(ps api.PlayerState) (PlaybackState, Metadata) {
	var state PlaybackState
	switch ps.Mode {
	case api.ModePlaying:
		state = StatePlaying
	case api.ModePaused:
		state = StatePaused
	default:
		return StateStopped, Metadata{}
	}
	switch src := ps.Source.(type) {
	case api.StreamSource:
		return state, Metadata{Title: src.StreamName, Album: "Radio"}
	case api.PlaylistSource:
		title := src.TrackTitle
		if title == "" {
			title = src.PlaylistName
		}
		return state, Metadata{Title: title, Artist: src.Artist, Album: src.PlaylistName}
	case api.QueueSource:
		return state, Metadata{Title: src.TrackTitle, Artist: src.Artist, Album: "Queue"}
	}
	return state, Metadata{}
}

// Controls is the subset of the command dispatcher media keys drive.
type Controls interface {
	TogglePause(ctx context.Context)
	Stop(ctx context.Context)
	Next(ctx context.Context)
	Previous(ctx context.Context)
}

// Artwork resolves cover art for a stream.
type Artwork interface {
	ArtURL(stream string) string
}

// Bridge keeps a Session in step with the player and forwards key presses.
type Bridge struct {
	ctx      context.Context
	session  Session
	controls Controls
	logger   zerolog.Logger
	art      Artwork

	mu    sync.Mutex
	state PlaybackState
}

// NewBridge wires session to controls. A nil session becomes a NoOpSession.
func NewBridge(ctx context.Context, session Session, controls Controls, logger zerolog.Logger) *Bridge {
	if session == nil {
		session = NoOpSession{}
	}
	b := &Bridge{ctx: ctx, session: session, controls: controls, logger: logger}
	session.SetCommandHandler(CommandHandlerFunc(b.handle))
	return b
}

// SetArtwork attaches stream logos to published stream metadata. Call it
// before the first Update.
func (b *Bridge) SetArtwork(art Artwork) {
	b.art = art
}

// Update publishes a player state.
func (b *Bridge) Update(ps api.PlayerState) {
	state, md := Describe(ps)
	if src, ok := ps.Source.(api.StreamSource); ok && state != StateStopped && b.art != nil {
		md.ArtURL = b.art.ArtURL(src.StreamName)
	}
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
	if err := b.session.Update(state, md); err != nil {
		b.logger.Warn().Err(err).Msg("media session update failed")
	}
}

func (b *Bridge) handle(cmd Command) {
	b.mu.Lock()
	state := b.state
	b.mu.Unlock()

	b.logger.Debug().Str("command", cmd.String()).Msg("media key")
	if b.controls == nil {
		return
	}
	// Play and Pause map onto the daemon's single pause toggle and are only
	// sent when they change the state.
	switch cmd {
	case CmdPlay:
		if state == StatePaused {
			b.controls.TogglePause(b.ctx)
		}
	case CmdPause:
		if state == StatePlaying {
			b.controls.TogglePause(b.ctx)
		}
	case CmdPlayPause:
		if state != StateStopped {
			b.controls.TogglePause(b.ctx)
		}
	case CmdStop:
		b.controls.Stop(b.ctx)
	case CmdNext:
		b.controls.Next(b.ctx)
	case CmdPrevious:
		b.controls.Previous(b.ctx)
	}
}

// Close closes the session.
func (b *Bridge) Close() error {
	return b.session.Close()
}
