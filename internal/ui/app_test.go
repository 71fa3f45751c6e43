package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/lazy"
	"github.com/five82/tonearm/internal/prefs"
	"github.com/five82/tonearm/internal/render"
	"github.com/five82/tonearm/internal/state"
	"github.com/five82/tonearm/internal/upload"
)

type fakeStore struct{ snap state.Snapshot }

func (f *fakeStore) Snapshot() state.Snapshot                 { return f.snap }
func (f *fakeStore) Subscribe(state.Listener) (unsubscribe func()) { return func() {} }

type fakeTracks struct {
	nodes   map[int]render.TrackNode
	toggled []int
	loads   int
}

func (f *fakeTracks) Toggle(_ context.Context, playlist int) lazy.LoadFunc {
	f.toggled = append(f.toggled, playlist)
	n := f.nodes[playlist]
	if n.Visible {
		n.Visible = false
		f.nodes[playlist] = n
		return nil
	}
	n.Visible = true
	if n.State == lazy.Loaded {
		f.nodes[playlist] = n
		return nil
	}
	n.State = lazy.Loading
	f.nodes[playlist] = n
	return func() error {
		f.loads++
		return nil
	}
}

func (f *fakeTracks) Node(playlist int) render.TrackNode { return f.nodes[playlist] }

func (f *fakeTracks) Subscribe(lazy.Listener[int, []api.TrackDescriptor]) (unsubscribe func()) {
	return func() {}
}

type fakeCommands struct {
	mu       sync.Mutex
	calls    []string
	queueErr error
}

func (f *fakeCommands) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeCommands) PlayStream(_ context.Context, i int)      { f.record("stream %d", i) }
func (f *fakeCommands) PlayPlaylist(_ context.Context, i int)    { f.record("playlist %d", i) }
func (f *fakeCommands) PlayTrack(_ context.Context, p, t int)    { f.record("track %d/%d", p, t) }
func (f *fakeCommands) TogglePause(context.Context)              { f.record("pause") }
func (f *fakeCommands) Stop(context.Context)                     { f.record("stop") }
func (f *fakeCommands) Next(context.Context)                     { f.record("next") }
func (f *fakeCommands) Previous(context.Context)                 { f.record("previous") }
func (f *fakeCommands) Enqueue(_ context.Context, p, t int) error {
	f.record("enqueue %d/%d", p, t)
	return f.queueErr
}
func (f *fakeCommands) Dequeue(_ context.Context, pos int) error {
	f.record("dequeue %d", pos)
	return f.queueErr
}
func (f *fakeCommands) ClearQueue(context.Context) error {
	f.record("clear")
	return f.queueErr
}

type fakeUploads struct {
	name  string
	paths []string
}

func (f *fakeUploads) Submit(_ context.Context, name string, paths []string) error {
	f.name, f.paths = name, paths
	return nil
}
func (f *fakeUploads) Status() upload.Status       { return upload.Status{} }
func (f *fakeUploads) Subscribe(func(upload.Status)) {}

func newTestModel(t *testing.T) (Model, *fakeTracks, *fakeCommands) {
	t.Helper()
	store := &fakeStore{snap: state.Snapshot{
		Player: api.StoppedState(),
		Streams: []api.StreamDescriptor{
			{Index: 3, Name: "Jazz FM", HasLogo: true},
			{Index: 7, Name: "News"},
		},
		Playlists: []api.PlaylistDescriptor{
			{Index: 0, Name: "Road Trip"},
			{Index: 1, Name: "Focus"},
		},
	}}
	tracks := &fakeTracks{nodes: map[int]render.TrackNode{}}
	commands := &fakeCommands{}
	m := New(Options{
		Store:     store,
		Tracks:    tracks,
		Commands:  commands,
		Uploads:   &fakeUploads{},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model), tracks, commands
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestNew_SeedsFromSnapshot(t *testing.T) {
	m, _, _ := newTestModel(t)
	if len(m.streamRows) != 2 || len(m.libraryRows) != 2 {
		t.Fatalf("rows = %d streams, %d library", len(m.streamRows), len(m.libraryRows))
	}
	if !m.queueView.Empty {
		t.Fatalf("queue view should be empty")
	}
	view := m.View()
	for _, want := range []string{"tonearm", "Stopped", "Jazz FM", "Road Trip", render.TextEmptyQueue} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestStoreMsg_ReplacesOnlyNamedCollection(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := m.Update(storeMsg(state.Change{
		Collection: state.CollectionQueue,
		Queue:      []api.QueueEntry{{TrackTitle: "Intro", PlaylistName: "Road Trip"}},
	}))
	m = next.(Model)
	if len(m.queueView.Rows) != 1 || m.queueView.Rows[0].Label != "1." {
		t.Fatalf("queue rows = %+v", m.queueView.Rows)
	}
	if len(m.streams) != 2 {
		t.Fatalf("streams replaced by a queue change: %+v", m.streams)
	}

	next, _ = m.Update(storeMsg(state.Change{
		Collection: state.CollectionPlayer,
		Player:     api.PlayerState{Mode: api.ModePlaying, Source: api.StreamSource{StreamName: "Jazz FM"}},
	}))
	m = next.(Model)
	if !strings.Contains(m.renderHeader(), render.GlyphPlaying) {
		t.Fatalf("header does not show playing glyph")
	}
}

func TestTabCyclesPanes(t *testing.T) {
	m, _, _ := newTestModel(t)
	want := []Pane{PaneLibrary, PaneQueue, PaneStreams}
	for _, w := range want {
		m, _ = press(t, m, keyTab)
		if m.focus != w {
			t.Fatalf("focus = %v, want %v", m.focus, w)
		}
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != PaneQueue {
		t.Fatalf("shift+tab focus = %v, want queue", m.focus)
	}
}

func TestEnterPlaysStreamByDescriptorIndex(t *testing.T) {
	m, _, commands := newTestModel(t)
	m, _ = press(t, m, runes("j"))
	_, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatalf("enter returned no command")
	}
	cmd()
	if len(commands.calls) != 1 || commands.calls[0] != "stream 7" {
		t.Fatalf("calls = %v, want [stream 7]", commands.calls)
	}
}

func TestPlaybackKeysFireCommands(t *testing.T) {
	m, _, commands := newTestModel(t)
	for _, k := range []string{"p", "s", "n", "b"} {
		_, cmd := press(t, m, runes(k))
		if cmd == nil {
			t.Fatalf("%q returned no command", k)
		}
		cmd()
	}
	want := []string{"pause", "stop", "next", "previous"}
	if strings.Join(commands.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", commands.calls, want)
	}
}

func TestSpaceExpandsPlaylistAndLoadsTracks(t *testing.T) {
	m, tracks, _ := newTestModel(t)
	m, _ = press(t, m, keyTab)

	m, cmd := press(t, m, keySpace)
	if len(tracks.toggled) != 1 || tracks.toggled[0] != 0 {
		t.Fatalf("toggled = %v, want [0]", tracks.toggled)
	}
	if len(m.libraryRows) != 3 || m.libraryRows[1].Kind != render.RowLoading {
		t.Fatalf("library rows = %+v, want a loading row under the playlist", m.libraryRows)
	}
	if cmd == nil {
		t.Fatalf("expand returned no load command")
	}
	msg := cmd()
	if done, ok := msg.(loadDoneMsg); !ok || done.playlist != 0 || done.err != nil {
		t.Fatalf("load command returned %#v", msg)
	}
	if tracks.loads != 1 {
		t.Fatalf("loads = %d, want 1", tracks.loads)
	}

	tracks.nodes[0] = render.TrackNode{State: lazy.Loaded, Visible: true, Value: []api.TrackDescriptor{{Index: 4, Title: "Intro"}}}
	next, _ := m.Update(nodeMsg{playlist: 0})
	m = next.(Model)
	if m.libraryRows[1].Kind != render.RowTrack || m.libraryRows[1].TrackIndex != 4 {
		t.Fatalf("library rows = %+v", m.libraryRows)
	}

	// enter on the track plays it; a enqueues it
	m, _ = press(t, m, runes("j"))
	_, cmd = press(t, m, keyEnter)
	cmd()
	_, cmd = press(t, m, runes("a"))
	if msg := cmd(); msg.(queueResultMsg).err != nil {
		t.Fatalf("enqueue returned %v", msg)
	}
}

func TestCursorSkipsPlaceholderRows(t *testing.T) {
	m, tracks, _ := newTestModel(t)
	tracks.nodes[0] = render.TrackNode{State: lazy.Loaded, Visible: true}
	next, _ := m.Update(nodeMsg{playlist: 0})
	m = next.(Model)
	m, _ = press(t, m, keyTab)

	// Road Trip, (empty), Focus
	if len(m.libraryRows) != 3 || m.libraryRows[1].Kind != render.RowEmpty {
		t.Fatalf("library rows = %+v", m.libraryRows)
	}
	m, _ = press(t, m, runes("j"))
	if m.cursor[PaneLibrary] != 2 {
		t.Fatalf("cursor = %d, want 2 (skipping the empty row)", m.cursor[PaneLibrary])
	}
	m, _ = press(t, m, runes("k"))
	if m.cursor[PaneLibrary] != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor[PaneLibrary])
	}
}

func TestQueueErrorShownInline(t *testing.T) {
	m, _, commands := newTestModel(t)
	next, _ := m.Update(storeMsg(state.Change{
		Collection: state.CollectionQueue,
		Queue:      []api.QueueEntry{{TrackTitle: "Intro", PlaylistName: "Road Trip"}},
	}))
	m = next.(Model)
	m, _ = press(t, m, keyTab, keyTab)

	commands.queueErr = errors.New("Could not remove from queue: Invalid position")
	_, cmd := press(t, m, runes("x"))
	next, _ = m.Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.View(), "Could not remove from queue") {
		t.Fatalf("queue error not rendered")
	}
	if len(m.queue) != 1 {
		t.Fatalf("a failed dequeue must not touch the queue")
	}

	commands.queueErr = nil
	_, cmd = press(t, m, runes("C"))
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.queueErr != "" {
		t.Fatalf("queueErr = %q after success", m.queueErr)
	}
	if got := commands.calls; got[len(got)-1] != "clear" {
		t.Fatalf("calls = %v", got)
	}
}

func TestClearQueueIgnoredWhenEmpty(t *testing.T) {
	m, _, _ := newTestModel(t)
	if _, cmd := press(t, m, runes("C")); cmd != nil {
		t.Fatalf("clear on an empty queue returned a command")
	}
}

func TestThemeCycleSavesPrefs(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Theme != "Kanagawa" || p.Pane != "streams" {
		t.Fatalf("prefs = %+v", p)
	}
}

func TestUploadFormSubmits(t *testing.T) {
	m, _, _ := newTestModel(t)
	uploads := m.uploads.(*fakeUploads)

	m, _ = press(t, m, runes("u"))
	if m.overlay != OverlayUpload {
		t.Fatalf("overlay = %v, want upload", m.overlay)
	}
	if !strings.Contains(m.View(), "folders of only FLAC files") {
		t.Fatalf("form hint does not say folders must hold only FLAC files")
	}
	// keys typed into the form are not global shortcuts
	m, _ = press(t, m, runes("e"), runes("p"), keyTab, runes("a.flac, dir/ ,"))
	if m.overlay != OverlayUpload {
		t.Fatalf("typing closed the form")
	}
	_, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatalf("submit returned no command")
	}
	if msg, ok := cmd().(uploadDoneMsg); !ok || msg.err != nil {
		t.Fatalf("submit returned %#v", msg)
	}
	if uploads.name != "ep" || strings.Join(uploads.paths, "|") != "a.flac|dir/" {
		t.Fatalf("submitted %q %v", uploads.name, uploads.paths)
	}

	next, _ := m.Update(uploadMsg(upload.Status{Phase: upload.Failed, Message: "Upload failed: disk full"}))
	m = next.(Model)
	if !strings.Contains(m.View(), "Upload failed: disk full") {
		t.Fatalf("upload status not shown in form")
	}

	m, _ = press(t, m, keyEsc)
	if m.overlay != OverlayNone {
		t.Fatalf("esc did not close the form")
	}
}

func TestUploadSubmitDisabledWhileBusy(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, runes("u"))
	next, _ := m.Update(uploadMsg(upload.Status{Phase: upload.Uploading, Message: "Uploading 2 files…"}))
	m = next.(Model)
	if _, cmd := press(t, m, keyEnter); cmd != nil {
		t.Fatalf("submit while uploading returned a command")
	}
}

func TestSplitPaths(t *testing.T) {
	got := splitPaths(" a.flac ,, b.FLAC,")
	if strings.Join(got, "|") != "a.flac|b.FLAC" {
		t.Fatalf("splitPaths = %v", got)
	}
	if splitPaths("  ") != nil {
		t.Fatalf("splitPaths(blank) should be nil")
	}
}

func TestLinkIndicator(t *testing.T) {
	m, _, _ := newTestModel(t)
	if !strings.Contains(m.renderHeader(), "CONNECTING") {
		t.Fatalf("new model should show CONNECTING")
	}
	next, _ := m.Update(storeMsg(state.Change{Collection: state.CollectionLink, Link: state.Link{Connected: true}}))
	m = next.(Model)
	if !strings.Contains(m.renderHeader(), "LIVE") {
		t.Fatalf("connected link should show LIVE")
	}
	next, _ = m.Update(storeMsg(state.Change{Collection: state.CollectionLink, Link: state.Link{
		ConsecutiveFailures: 2,
		LastError:           errors.New("dial tcp: connection refused"),
	}}))
	m = next.(Model)
	header := m.renderHeader()
	if !strings.Contains(header, "OFFLINE") || !strings.Contains(header, "daemon not running") {
		t.Fatalf("offline header = %q", header)
	}
}

func TestLogViewShowsEntries(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, cmd := press(t, m, runes("L"))
	if m.overlay != OverlayLogs || cmd == nil {
		t.Fatalf("L did not open the log view")
	}
	next, _ := m.Update(logLoadedMsg{entries: nil, err: errors.New("permission denied")})
	m = next.(Model)
	if !strings.Contains(m.View(), "permission denied") {
		t.Fatalf("log error not rendered")
	}
	m, _ = press(t, m, keyEsc)
	if m.overlay != OverlayNone {
		t.Fatalf("esc did not close the log view")
	}
}
