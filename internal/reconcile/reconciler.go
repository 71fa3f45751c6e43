package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/state"
)

const (
	defaultBase = time.Second
	maxBackoff  = 30 * time.Second
)

// Stream yields raw push frames in arrival order.
type Stream interface {
	Next() ([]byte, error)
	Close() error
}

// SubscribeFunc opens the push channel.
type SubscribeFunc func(ctx context.Context) (Stream, error)

// Invalidator drops every cached child collection.
type Invalidator interface {
	Invalidate()
}

// Options wires a Reconciler.
type Options struct {
	Fetcher   api.Fetcher
	Subscribe SubscribeFunc
	Store     *state.Store
	Cache     Invalidator
	Logger    zerolog.Logger
	Base      time.Duration // first reconnect delay; doubles per failure
}

// Reconciler owns the single push subscription and is the only writer of
// the state store and the only caller of Cache.Invalidate.
type Reconciler struct {
	fetcher   api.Fetcher
	subscribe SubscribeFunc
	store     *state.Store
	cache     Invalidator
	logger    zerolog.Logger
	base      time.Duration

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// New builds a Reconciler. Fetcher, Subscribe and Store are required.
func New(opts Options) (*Reconciler, error) {
	if opts.Fetcher == nil || opts.Subscribe == nil || opts.Store == nil {
		return nil, fmt.Errorf("reconcile: fetcher, subscribe and store are required")
	}
	base := opts.Base
	if base <= 0 {
		base = defaultBase
	}
	return &Reconciler{
		fetcher:   opts.Fetcher,
		subscribe: opts.Subscribe,
		store:     opts.Store,
		cache:     opts.Cache,
		logger:    opts.Logger,
		base:      base,
		wait:      waitForBackoff,
		now:       time.Now,
	}, nil
}

// Run subscribes and applies events until ctx is cancelled. Every
// successful subscribe, including the first, is followed by a full
// re-fetch of all four collections before any event is applied, so updates
// missed while disconnected are never lost. The failure count behind the
// reconnect delay only resets once a connection proves healthy: it
// delivered a frame or stayed up for the longest backoff.
func (r *Reconciler) Run(ctx context.Context) error {
	failures := 0
	for {
		stream, err := r.subscribe(ctx)
		if err == nil {
			r.store.MarkConnected()
			r.logger.Info().Str("subscription", subscriptionID(stream)).Msg("push channel connected")
			r.invalidate()
			r.Refresh(ctx)
			started := r.now()
			var received bool
			received, err = r.consume(ctx, stream)
			_ = stream.Close()
			if received || r.now().Sub(started) >= maxBackoff {
				failures = 0
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || errors.Is(err, io.EOF) {
			err = errors.New("push channel closed by daemon")
		}
		r.store.MarkDisconnected(err)
		delay := calculateBackoff(failures, r.base)
		r.logger.Warn().Err(err).Int("failures", failures+1).Dur("retry_in", delay).Msg("push channel down")
		failures++
		if err := r.wait(ctx, delay); err != nil {
			return err
		}
	}
}

// subscriptionID returns the stream's request id when it carries one.
func subscriptionID(stream Stream) string {
	if s, ok := stream.(interface{ ID() string }); ok {
		return s.ID()
	}
	return ""
}

// Refresh re-fetches state, streams, playlists and queue concurrently. Each
// result replaces only its own collection; a failed read is logged and
// leaves the previous value in place.
func (r *Reconciler) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		ps, err := r.fetcher.FetchState(ctx)
		if err != nil {
			r.fetchFailed(err, "state")
			return
		}
		r.store.ReplacePlayerState(ps)
	}()
	go func() {
		defer wg.Done()
		streams, err := r.fetcher.FetchStreams(ctx)
		if err != nil {
			r.fetchFailed(err, "streams")
			return
		}
		r.store.ReplaceStreams(streams)
	}()
	go func() {
		defer wg.Done()
		r.refreshPlaylists(ctx)
	}()
	go func() {
		defer wg.Done()
		queue, err := r.fetcher.FetchQueue(ctx)
		if err != nil {
			r.fetchFailed(err, "queue")
			return
		}
		r.store.ReplaceQueue(queue)
	}()
	wg.Wait()
}

// consume applies frames until the stream fails. It reports whether any
// frame arrived.
func (r *Reconciler) consume(ctx context.Context, stream Stream) (bool, error) {
	received := false
	for {
		data, err := stream.Next()
		if err != nil {
			return received, err
		}
		if ctx.Err() != nil {
			return received, ctx.Err()
		}
		received = true
		r.Apply(ctx, data)
	}
}

// Apply decodes one frame and applies it. Malformed or unknown frames are
// logged and dropped without touching the store.
func (r *Reconciler) Apply(ctx context.Context, data []byte) {
	ev, err := api.DecodeEvent(data)
	if err != nil {
		r.logger.Warn().Err(err).Str("frame", preview(data)).Msg("dropped push event")
		return
	}
	r.store.MarkEvent(r.now())
	r.logger.Debug().Str("event", api.EventType(ev)).Msg("push event")

	switch e := ev.(type) {
	case api.PlayerStateEvent:
		r.store.ReplacePlayerState(e.State)
	case api.LibraryUpdatedEvent:
		r.invalidate()
		r.refreshPlaylists(ctx)
	case api.QueueUpdatedEvent:
		r.store.ReplaceQueue(e.Queue)
	}
}

func (r *Reconciler) refreshPlaylists(ctx context.Context) {
	playlists, err := r.fetcher.FetchPlaylists(ctx)
	if err != nil {
		r.fetchFailed(err, "playlists")
		return
	}
	r.store.ReplacePlaylists(playlists)
}

func (r *Reconciler) invalidate() {
	if r.cache != nil {
		r.cache.Invalidate()
	}
}

func (r *Reconciler) fetchFailed(err error, collection string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.logger.Error().Err(err).Str("collection", collection).Msg("fetch failed")
}

func preview(data []byte) string {
	const limit = 120
	if len(data) > limit {
		return string(data[:limit]) + "…"
	}
	return string(data)
}

// calculateBackoff returns base doubled once per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

func waitForBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
