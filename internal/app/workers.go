package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/reconcile"
	"github.com/five82/tonearm/internal/state"
)

// runner is a background loop stopped by cancelling its context.
type runner interface {
	Run(ctx context.Context) error
}

// logoRequester queues logo fetches for a new stream catalog.
type logoRequester interface {
	Request(streams []api.StreamDescriptor)
}

// playerPublisher mirrors the player state somewhere outside the UI.
type playerPublisher interface {
	Update(ps api.PlayerState)
}

// workers are the goroutines that live as long as the UI.
type workers struct {
	wg     sync.WaitGroup
	logger zerolog.Logger
	unsub  []func()
}

// start launches each runner in its own goroutine.
func (w *workers) start(ctx context.Context, name string, r runner) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Str("worker", name).Msg("worker stopped")
		}
	}()
}

// follow routes store changes to the side effects that depend on them: a
// new stream catalog queues logo fetches and a new player state is
// published to the media session. Either target may be nil.
func (w *workers) follow(store *state.Store, logos logoRequester, player playerPublisher) {
	w.unsub = append(w.unsub, store.Subscribe(func(c state.Change) {
		switch c.Collection {
		case state.CollectionStreams:
			if logos != nil {
				logos.Request(c.Streams)
			}
		case state.CollectionPlayer:
			if player != nil {
				player.Update(c.Player)
			}
		}
	}))
}

// wait unsubscribes and blocks until every runner returned. Cancel the
// runners' context first.
func (w *workers) wait() {
	for _, fn := range w.unsub {
		fn()
	}
	w.wg.Wait()
}

// pushChannel adapts the client's notification stream to the reconciler.
func pushChannel(client *api.Client) reconcile.SubscribeFunc {
	return func(ctx context.Context) (reconcile.Stream, error) {
		stream, err := client.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
}

type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }
