package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/state"
)

type recordingLogos struct {
	mu       sync.Mutex
	requests [][]api.StreamDescriptor
}

func (r *recordingLogos) Request(streams []api.StreamDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, streams)
}

type recordingPlayer struct {
	states []api.PlayerState
}

func (r *recordingPlayer) Update(ps api.PlayerState) { r.states = append(r.states, ps) }

func TestFollow_RoutesStoreChanges(t *testing.T) {
	store := &state.Store{}
	logos := &recordingLogos{}
	player := &recordingPlayer{}
	w := &workers{logger: zerolog.Nop()}
	w.follow(store, logos, player)

	streams := []api.StreamDescriptor{{Index: 0, Name: "Jazz FM", HasLogo: true}}
	store.ReplaceStreams(streams)
	store.ReplaceQueue([]api.QueueEntry{{TrackTitle: "Intro"}})
	playing := api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "Jazz FM"}}
	store.ReplacePlayerState(playing)

	require.Len(t, logos.requests, 1)
	assert.Equal(t, streams, logos.requests[0])
	require.Len(t, player.states, 1)
	assert.Equal(t, playing, player.states[0])

	w.wait()
	store.ReplaceStreams(nil)
	assert.Len(t, logos.requests, 1, "no routing after wait")
}

func TestFollow_NilTargets(t *testing.T) {
	store := &state.Store{}
	w := &workers{logger: zerolog.Nop()}
	w.follow(store, nil, nil)
	store.ReplaceStreams([]api.StreamDescriptor{{Name: "News"}})
	store.ReplacePlayerState(api.StoppedState())
	w.wait()
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &workers{logger: zerolog.Nop()}

	started := make(chan struct{})
	w.start(ctx, "blocker", runFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	w.start(ctx, "failing", runFunc(func(context.Context) error {
		return errors.New("boom")
	}))

	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		w.wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}
