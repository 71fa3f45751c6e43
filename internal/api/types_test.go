package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestPlayerState_UnmarshalTaggedForm(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want PlayerState
	}{
		{
			name: "stream",
			raw:  `{"mode":"Playing","sourceInfo":{"type":"Stream","streamName":"Jazz FM"}}`,
			want: PlayerState{Mode: ModePlaying, Source: StreamSource{StreamName: "Jazz FM"}},
		},
		{
			name: "playlist with track",
			raw:  `{"mode":"Paused","sourceInfo":{"type":"Playlist","playlistName":"Road Trip","trackTitle":"Intro","artist":"Band"}}`,
			want: PlayerState{Mode: ModePaused, Source: PlaylistSource{PlaylistName: "Road Trip", TrackTitle: "Intro", Artist: "Band"}},
		},
		{
			name: "queue",
			raw:  `{"mode":"playing","sourceInfo":{"type":"Queue","trackTitle":"Outro"}}`,
			want: PlayerState{Mode: ModePlaying, Source: QueueSource{TrackTitle: "Outro"}},
		},
		{
			name: "none",
			raw:  `{"mode":"Stopped","sourceInfo":{"type":"None"}}`,
			want: StoppedState(),
		},
		{
			name: "missing source",
			raw:  `{"mode":"Stopped"}`,
			want: StoppedState(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got PlayerState
			if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestPlayerState_UnmarshalFlatForm(t *testing.T) {
	var got PlayerState
	raw := `{"type":"playerState","mode":"Playing","source_type":"Stream","source_name":"News"}`
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	want := PlayerState{Mode: ModePlaying, Source: StreamSource{StreamName: "News"}}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	raw = `{"mode":"Paused","source_type":"Playlist","source_name":"Road Trip"}`
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if got.Source != (PlaylistSource{PlaylistName: "Road Trip"}) {
		t.Fatalf("source = %#v, want playlist Road Trip", got.Source)
	}
}

func TestPlayerState_UnmarshalRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{
		`{"mode":"Rewinding"}`,
		`{}`,
		`{"mode":" "}`,
		`{"mode":"Playing","sourceInfo":{"type":"Vinyl"}}`,
		`{"mode":"Playing","source_type":"Vinyl","source_name":"x"}`,
	} {
		var got PlayerState
		if err := json.Unmarshal([]byte(raw), &got); err == nil {
			t.Fatalf("Unmarshal(%s) returned nil error", raw)
		}
	}
}

func TestPlayerState_MarshalWritesTaggedForm(t *testing.T) {
	in := PlayerState{Mode: ModePaused, Source: QueueSource{TrackTitle: "Intro", Artist: "Band"}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if !strings.Contains(string(data), `"type":"Queue"`) || !strings.Contains(string(data), `"mode":"Paused"`) {
		t.Fatalf("Marshal = %s", data)
	}
	var out PlayerState
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %#v, want %#v", out, in)
	}
}

func TestSourceKind(t *testing.T) {
	if got := SourceKind(nil); got != "None" {
		t.Fatalf("SourceKind(nil) = %q, want None", got)
	}
	if got := SourceKind(PlaylistSource{}); got != "Playlist" {
		t.Fatalf("SourceKind(PlaylistSource) = %q", got)
	}
}

func TestQueueEntry_AcceptsSnakeCase(t *testing.T) {
	var entries []QueueEntry
	raw := `[{"track_title":"Intro","track_artist":"Band","playlist_name":"Road Trip"},{"trackTitle":"Outro","playlistName":"Mix"}]`
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	want := []QueueEntry{
		{TrackTitle: "Intro", TrackArtist: "Band", PlaylistName: "Road Trip"},
		{TrackTitle: "Outro", PlaylistName: "Mix"},
	}
	if len(entries) != len(want) || entries[0] != want[0] || entries[1] != want[1] {
		t.Fatalf("entries = %#v, want %#v", entries, want)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"playerState","mode":"Playing","sourceInfo":{"type":"Stream","streamName":"Jazz FM"}}`))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	ps, ok := ev.(PlayerStateEvent)
	if !ok || ps.State.Source != (StreamSource{StreamName: "Jazz FM"}) {
		t.Fatalf("event = %#v, want PlayerStateEvent for Jazz FM", ev)
	}
	if EventType(ev) != EventPlayerState {
		t.Fatalf("EventType = %q", EventType(ev))
	}

	ev, err = DecodeEvent([]byte(`{"type":"libraryUpdated"}`))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if _, ok := ev.(LibraryUpdatedEvent); !ok {
		t.Fatalf("event = %#v, want LibraryUpdatedEvent", ev)
	}

	ev, err = DecodeEvent([]byte(`{"type":"queueUpdated","queue":null}`))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	qe := ev.(QueueUpdatedEvent)
	if qe.Queue == nil || len(qe.Queue) != 0 {
		t.Fatalf("queue = %#v, want empty non-nil", qe.Queue)
	}

	ev, err = DecodeEvent([]byte(`{"type":"queueUpdated","queue":[{"trackTitle":"Intro","playlistName":"Road Trip"}]}`))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	qe = ev.(QueueUpdatedEvent)
	if len(qe.Queue) != 1 || qe.Queue[0].TrackTitle != "Intro" {
		t.Fatalf("queue = %#v, want one entry Intro", qe.Queue)
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"type":"reboot"}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("unknown type error = %v, want ErrUnknownEvent", err)
	}
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Fatalf("DecodeEvent(not json) returned nil error")
	}
	if _, err := DecodeEvent([]byte(`{"type":"queueUpdated"}`)); err == nil || !strings.Contains(err.Error(), "missing queue") {
		t.Fatalf("missing queue error = %v", err)
	}
	if _, err := DecodeEvent([]byte(`{"type":"queueUpdated","queue":{"trackTitle":"x"}}`)); err == nil {
		t.Fatalf("object queue returned nil error")
	}
	if _, err := DecodeEvent([]byte(`{"type":"playerState","mode":"Warp"}`)); err == nil {
		t.Fatalf("bad mode returned nil error")
	}
	for _, raw := range []string{
		`{"type":"playerState"}`,
		`{"type":"playerState","mode":null}`,
		`{"type":"playerState","mode":""}`,
		`{"type":"playerState","foo":1}`,
		`{"type":"playerState","sourceInfo":{"type":"Stream","streamName":"Jazz FM"}}`,
	} {
		if _, err := DecodeEvent([]byte(raw)); !errors.Is(err, ErrMissingMode) {
			t.Fatalf("DecodeEvent(%s) error = %v, want ErrMissingMode", raw, err)
		}
	}
}

func TestEventStream_DiscardsUnterminatedFrame(t *testing.T) {
	s := newEventStream(io.NopCloser(strings.NewReader("data: {\"type\":\"libraryUpdated\"}\n")), "id")
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next = %v, want io.EOF", err)
	}
	if s.ID() != "id" {
		t.Fatalf("ID = %q, want id", s.ID())
	}
}

func TestAPIError_Messages(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: `{"error":"Playlist not found"}`, want: "Playlist not found"},
		{raw: `{"message":"Queue item not found"}`, want: "Queue item not found"},
		{raw: "  plain text\n", want: "plain text"},
		{raw: "<html><body>502</body></html>", want: ""},
		{raw: "", want: ""},
	}
	for _, tc := range cases {
		if got := errorMessage([]byte(tc.raw)); got != tc.want {
			t.Fatalf("errorMessage(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	err := &APIError{Method: "POST", Path: "/api/queue/remove/4", Status: http.StatusNotFound}
	if err.Reason() != "Not Found" {
		t.Fatalf("Reason = %q, want status text", err.Reason())
	}
	if !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("Error = %q", err.Error())
	}
}
