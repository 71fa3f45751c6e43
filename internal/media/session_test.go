package media

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tonearm/internal/api"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name  string
		in    api.PlayerState
		state PlaybackState
		md    Metadata
	}{
		{
			name:  "stopped ignores source",
			in:    api.PlayerState{Mode: api.ModeStopped, Source: api.StreamSource{StreamName: "Jazz FM"}},
			state: StateStopped,
		},
		{
			name:  "stream",
			in:    api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "Jazz FM"}},
			state: StatePlaying,
			md:    Metadata{Title: "Jazz FM", Album: "Radio"},
		},
		{
			name:  "playlist without track",
			in:    api.PlayerState{Mode: api.ModePaused, Source: api.PlaylistSource{PlaylistName: "Road Trip"}},
			state: StatePaused,
			md:    Metadata{Title: "Road Trip", Album: "Road Trip"},
		},
		{
			name:  "playlist track",
			in:    api.PlayerState{Mode: api.ModePlaying, Source: api.PlaylistSource{PlaylistName: "Road Trip", TrackTitle: "Intro", Artist: "Band"}},
			state: StatePlaying,
			md:    Metadata{Title: "Intro", Artist: "Band", Album: "Road Trip"},
		},
		{
			name:  "queue",
			in:    api.PlayerState{Mode: api.ModePlaying, Source: api.QueueSource{TrackTitle: "Outro"}},
			state: StatePlaying,
			md:    Metadata{Title: "Outro", Album: "Queue"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, md := Describe(tc.in)
			assert.Equal(t, tc.state, state)
			assert.Equal(t, tc.md, md)
		})
	}
}

type fakeSession struct {
	handler CommandHandler
	states  []PlaybackState
	titles  []string
	art     []string
}

func (f *fakeSession) Update(state PlaybackState, md Metadata) error {
	f.states = append(f.states, state)
	f.titles = append(f.titles, md.Title)
	f.art = append(f.art, md.ArtURL)
	return nil
}
func (f *fakeSession) SetCommandHandler(h CommandHandler) { f.handler = h }
func (f *fakeSession) Close() error                       { return nil }

type fakeControls struct {
	calls []string
}

func (f *fakeControls) TogglePause(context.Context) { f.calls = append(f.calls, "toggle") }
func (f *fakeControls) Stop(context.Context)        { f.calls = append(f.calls, "stop") }
func (f *fakeControls) Next(context.Context)        { f.calls = append(f.calls, "next") }
func (f *fakeControls) Previous(context.Context)    { f.calls = append(f.calls, "previous") }

func TestBridge_MediaKeysFollowPlayerState(t *testing.T) {
	session := &fakeSession{}
	controls := &fakeControls{}
	b := NewBridge(context.Background(), session, controls, zerolog.Nop())
	require.NotNil(t, session.handler)

	// Stopped: play/pause keys have nothing to toggle.
	session.handler.OnCommand(CmdPlay)
	session.handler.OnCommand(CmdPlayPause)
	assert.Empty(t, controls.calls)

	b.Update(api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "Jazz FM"}})
	session.handler.OnCommand(CmdPlay)
	session.handler.OnCommand(CmdPause)
	assert.Equal(t, []string{"toggle"}, controls.calls)

	b.Update(api.PlayerState{Mode: api.ModePaused, Source: api.StreamSource{StreamName: "Jazz FM"}})
	session.handler.OnCommand(CmdPlayPause)
	session.handler.OnCommand(CmdNext)
	session.handler.OnCommand(CmdPrevious)
	session.handler.OnCommand(CmdStop)
	assert.Equal(t, []string{"toggle", "toggle", "next", "previous", "stop"}, controls.calls)

	assert.Equal(t, []PlaybackState{StatePlaying, StatePaused}, session.states)
	assert.Equal(t, []string{"Jazz FM", "Jazz FM"}, session.titles)
}

func TestBridge_NilSessionIsNoOp(t *testing.T) {
	b := NewBridge(context.Background(), nil, nil, zerolog.Nop())
	b.Update(api.StoppedState())
	assert.NoError(t, b.Close())
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "PlayPause", CmdPlayPause.String())
	assert.Equal(t, "Unknown", Command(99).String())
}

type fakeArtwork map[string]string

func (f fakeArtwork) ArtURL(stream string) string { return f[stream] }

func TestBridge_StreamArtwork(t *testing.T) {
	session := &fakeSession{}
	b := NewBridge(context.Background(), session, nil, zerolog.Nop())
	b.SetArtwork(fakeArtwork{"Jazz FM": "file:///cache/art/jazz.svg"})

	b.Update(api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "Jazz FM"}})
	b.Update(api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "News"}})
	b.Update(api.PlayerState{Mode: api.ModePlaying, Source: api.PlaylistSource{PlaylistName: "Jazz FM"}})
	b.Update(api.PlayerState{Mode: api.ModeStopped, Source: api.StreamSource{StreamName: "Jazz FM"}})

	assert.Equal(t, []string{"file:///cache/art/jazz.svg", "", "", ""}, session.art)
}
