package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/lazy"
	"github.com/five82/tonearm/internal/render"
	"github.com/five82/tonearm/internal/state"
	"github.com/five82/tonearm/internal/upload"
)

// Store is the read side of the remote state store.
type Store interface {
	Snapshot() state.Snapshot
	Subscribe(fn state.Listener) (unsubscribe func())
}

// Tracks is the lazy playlist track cache.
type Tracks interface {
	Toggle(ctx context.Context, playlist int) lazy.LoadFunc
	Node(playlist int) render.TrackNode
	Subscribe(fn lazy.Listener[int, []api.TrackDescriptor]) (unsubscribe func())
}

// Commands issues playback and queue commands. Playback results arrive
// through the store; queue commands report failure directly.
type Commands interface {
	PlayStream(ctx context.Context, index int)
	PlayPlaylist(ctx context.Context, index int)
	PlayTrack(ctx context.Context, playlist, track int)
	TogglePause(ctx context.Context)
	Stop(ctx context.Context)
	Next(ctx context.Context)
	Previous(ctx context.Context)
	Enqueue(ctx context.Context, playlist, track int) error
	Dequeue(ctx context.Context, position int) error
	ClearQueue(ctx context.Context) error
}

// Uploads is the playlist upload controller.
type Uploads interface {
	Submit(ctx context.Context, name string, paths []string) error
	Status() upload.Status
	Subscribe(fn func(upload.Status))
}

// Logos reports which stream logos are cached locally.
type Logos interface {
	Has(name string) bool
	OnStored(fn func(name string))
}

// Options configure the UI.
type Options struct {
	Context   context.Context
	Store     Store
	Tracks    Tracks
	Commands  Commands
	Uploads   Uploads
	Logos     Logos // optional
	Logger    zerolog.Logger
	LogPath   string // client log shown by the log view
	ThemeName string
	Pane      string
	PrefsPath string
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil || opts.Commands == nil {
		return fmt.Errorf("ui requires a store and a command dispatcher")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	for _, stop := range attach(p, opts) {
		defer stop()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// attach forwards store, cache, upload and logo notifications into the
// program. Store and upload notifications never originate on the UI
// goroutine, so they are sent in order. Node transitions can fire from inside
// Update (an expand), so they are sent from a fresh goroutine; they carry no
// data and order does not matter.
func attach(p *tea.Program, opts Options) []func() {
	var stops []func()
	stops = append(stops, opts.Store.Subscribe(func(c state.Change) {
		p.Send(storeMsg(c))
	}))
	if opts.Tracks != nil {
		stops = append(stops, opts.Tracks.Subscribe(func(playlist int, _ render.TrackNode) {
			go p.Send(nodeMsg{playlist: playlist})
		}))
	}
	if opts.Uploads != nil {
		opts.Uploads.Subscribe(func(st upload.Status) {
			p.Send(uploadMsg(st))
		})
	}
	if opts.Logos != nil {
		opts.Logos.OnStored(func(name string) {
			p.Send(logoMsg(name))
		})
	}
	return stops
}
