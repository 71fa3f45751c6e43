// Package ui is the Bubble Tea terminal surface for tonearm.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/logtail"
	"github.com/five82/tonearm/internal/prefs"
	"github.com/five82/tonearm/internal/render"
	"github.com/five82/tonearm/internal/state"
	"github.com/five82/tonearm/internal/upload"
)

// Pane identifies a focusable list.
type Pane int

const (
	PaneStreams Pane = iota
	PaneLibrary
	PaneQueue
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PaneLibrary:
		return "library"
	case PaneQueue:
		return "queue"
	default:
		return "streams"
	}
}

func parsePane(s string) Pane {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "library":
		return PaneLibrary
	case "queue":
		return PaneQueue
	default:
		return PaneStreams
	}
}

// Overlay is a modal drawn over the panes.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayUpload
	OverlayLogs
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx       context.Context
	store     Store
	tracks    Tracks
	commands  Commands
	uploads   Uploads
	logos     Logos
	logger    zerolog.Logger
	logPath   string
	prefsPath string

	// UI state
	theme   Theme
	keys    keyMap
	width   int
	height  int
	ready   bool
	focus   Pane
	overlay Overlay
	cursor  [paneCount]int

	// Data state, replaced one collection at a time
	player    api.PlayerState
	streams   []api.StreamDescriptor
	playlists []api.PlaylistDescriptor
	queue     []api.QueueEntry
	link      state.Link

	// Derived rows
	streamRows  []render.StreamRow
	libraryRows []render.LibraryRow
	queueView   render.QueueView

	queueErr string

	// Upload form
	uploadInputs [2]textinput.Model // name, paths
	uploadField  int
	uploadStatus upload.Status

	// Log view
	logViewport viewport.Model
	logErr      string
}

// New creates the model and seeds it from the store's current snapshot.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		tracks:    opts.Tracks,
		commands:  opts.Commands,
		uploads:   opts.Uploads,
		logos:     opts.Logos,
		logger:    opts.Logger,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
		focus:     parsePane(opts.Pane),
		player:    api.StoppedState(),
	}
	if m.store != nil {
		snap := m.store.Snapshot()
		m.player = snap.Player
		m.streams = snap.Streams
		m.playlists = snap.Playlists
		m.queue = snap.Queue
		m.link = snap.Link
	}
	if m.uploads != nil {
		m.uploadStatus = m.uploads.Status()
	}
	m.initUploadInputs()
	m.logViewport = viewport.New(0, 0)
	m.rebuildStreams()
	m.rebuildLibrary()
	m.rebuildQueue()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case storeMsg:
		m.applyChange(state.Change(msg))
		return m, nil

	case nodeMsg:
		m.rebuildLibrary()
		return m, nil

	case logoMsg:
		m.rebuildStreams()
		return m, nil

	case uploadMsg:
		m.uploadStatus = upload.Status(msg)
		return m, nil

	case uploadDoneMsg:
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Msg("upload submit returned")
		}
		return m, nil

	case queueResultMsg:
		if msg.err != nil {
			m.queueErr = msg.err.Error()
		} else {
			m.queueErr = ""
		}
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.logger.Error().Err(msg.err).Int("playlist", msg.playlist).Msg("track load failed")
		}
		return m, nil

	case logLoadedMsg:
		m.setLogEntries(msg.entries, msg.err)
		return m, nil
	}

	if m.overlay == OverlayUpload {
		return m.updateUploadInputs(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch m.overlay {
	case OverlayHelp:
		return m.renderHelp()
	case OverlayUpload:
		return m.renderUploadForm()
	case OverlayLogs:
		return m.renderLogView()
	}
	return m.renderMain()
}

// applyChange replaces the collection named by c and redraws only the rows
// derived from it.
func (m *Model) applyChange(c state.Change) {
	switch c.Collection {
	case state.CollectionPlayer:
		m.player = c.Player
	case state.CollectionStreams:
		m.streams = c.Streams
		m.rebuildStreams()
	case state.CollectionPlaylists:
		m.playlists = c.Playlists
		m.rebuildLibrary()
	case state.CollectionQueue:
		m.queue = c.Queue
		m.rebuildQueue()
	case state.CollectionLink:
		m.link = c.Link
	}
}

func (m *Model) rebuildStreams() {
	var cached func(string) bool
	if m.logos != nil {
		cached = m.logos.Has
	}
	m.streamRows = render.Streams(m.streams, cached)
	m.clampCursor(PaneStreams)
}

func (m *Model) rebuildLibrary() {
	var node func(int) render.TrackNode
	if m.tracks != nil {
		node = m.tracks.Node
	}
	m.libraryRows = render.Library(m.playlists, node)
	m.clampCursor(PaneLibrary)
}

func (m *Model) rebuildQueue() {
	m.queueView = render.Queue(m.queue)
	m.clampCursor(PaneQueue)
}

func (m *Model) paneLen(p Pane) int {
	switch p {
	case PaneStreams:
		return len(m.streamRows)
	case PaneLibrary:
		return len(m.libraryRows)
	default:
		return len(m.queueView.Rows)
	}
}

func (m *Model) clampCursor(p Pane) {
	n := m.paneLen(p)
	if m.cursor[p] >= n {
		m.cursor[p] = n - 1
	}
	if m.cursor[p] < 0 {
		m.cursor[p] = 0
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayHelp:
		m.overlay = OverlayNone
		return m, nil
	case OverlayUpload:
		return m.handleUploadKey(msg)
	case OverlayLogs:
		return m.handleLogKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Upload):
		m.openUploadForm()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Logs):
		m.overlay = OverlayLogs
		return m, m.loadLogs()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor[m.focus] = 0
		m.moveCursor(0)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor[m.focus] = m.paneLen(m.focus) - 1
		m.moveCursor(0)
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		return m, m.fire(m.commands.TogglePause)
	case key.Matches(msg, m.keys.Stop):
		return m, m.fire(m.commands.Stop)
	case key.Matches(msg, m.keys.Next):
		return m, m.fire(m.commands.Next)
	case key.Matches(msg, m.keys.Previous):
		return m, m.fire(m.commands.Previous)

	case key.Matches(msg, m.keys.Play):
		return m, m.playSelection()
	case key.Matches(msg, m.keys.Expand):
		return m, m.toggleSelection()
	case key.Matches(msg, m.keys.Enqueue):
		return m, m.enqueueSelection()
	case key.Matches(msg, m.keys.Dequeue):
		return m, m.dequeueSelection()
	case key.Matches(msg, m.keys.Clear):
		return m, m.clearQueue()
	}
	return m, nil
}

// moveCursor moves within the focused pane. In the library the cursor skips
// placeholder rows.
func (m *Model) moveCursor(delta int) {
	n := m.paneLen(m.focus)
	if n == 0 {
		m.cursor[m.focus] = 0
		return
	}
	pos := m.cursor[m.focus] + delta
	if pos < 0 {
		pos = 0
	}
	if pos >= n {
		pos = n - 1
	}
	if m.focus == PaneLibrary {
		step := delta
		if step == 0 {
			step = -1
		}
		for pos >= 0 && pos < n && !m.libraryRows[pos].Selectable() {
			pos += step
		}
		if pos < 0 || pos >= n {
			return
		}
	}
	m.cursor[m.focus] = pos
}

func (m Model) selectedLibraryRow() (render.LibraryRow, bool) {
	i := m.cursor[PaneLibrary]
	if i < 0 || i >= len(m.libraryRows) {
		return render.LibraryRow{}, false
	}
	return m.libraryRows[i], true
}

// fire runs a playback command off the UI goroutine. Its outcome shows up
// only through the push channel.
func (m Model) fire(cmd func(context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		cmd(ctx)
		return nil
	}
}

func (m Model) playSelection() tea.Cmd {
	ctx := m.ctx
	switch m.focus {
	case PaneStreams:
		i := m.cursor[PaneStreams]
		if i >= len(m.streamRows) {
			return nil
		}
		index := m.streamRows[i].Index
		return m.fire(func(ctx context.Context) { m.commands.PlayStream(ctx, index) })
	case PaneLibrary:
		row, ok := m.selectedLibraryRow()
		if !ok {
			return nil
		}
		switch row.Kind {
		case render.RowPlaylist:
			return func() tea.Msg {
				m.commands.PlayPlaylist(ctx, row.PlaylistIndex)
				return nil
			}
		case render.RowTrack:
			return func() tea.Msg {
				m.commands.PlayTrack(ctx, row.PlaylistIndex, row.TrackIndex)
				return nil
			}
		}
	}
	return nil
}

// toggleSelection expands or collapses the playlist under the cursor. The
// node moves to Loading before this returns; the fetch runs as a command.
func (m *Model) toggleSelection() tea.Cmd {
	if m.focus != PaneLibrary || m.tracks == nil {
		return nil
	}
	row, ok := m.selectedLibraryRow()
	if !ok {
		return nil
	}
	playlist := row.PlaylistIndex
	load := m.tracks.Toggle(m.ctx, playlist)
	m.rebuildLibrary()
	if row.Kind != render.RowPlaylist {
		// collapsing from a child row leaves the cursor on the parent
		for i, r := range m.libraryRows {
			if r.Kind == render.RowPlaylist && r.PlaylistIndex == playlist {
				m.cursor[PaneLibrary] = i
				break
			}
		}
	}
	if load == nil {
		return nil
	}
	return func() tea.Msg {
		return loadDoneMsg{playlist: playlist, err: load()}
	}
}

func (m Model) enqueueSelection() tea.Cmd {
	if m.focus != PaneLibrary {
		return nil
	}
	row, ok := m.selectedLibraryRow()
	if !ok || row.Kind != render.RowTrack {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return queueResultMsg{err: m.commands.Enqueue(ctx, row.PlaylistIndex, row.TrackIndex)}
	}
}

func (m Model) dequeueSelection() tea.Cmd {
	if m.focus != PaneQueue {
		return nil
	}
	i := m.cursor[PaneQueue]
	if i >= len(m.queueView.Rows) {
		return nil
	}
	position := m.queueView.Rows[i].Position
	ctx := m.ctx
	return func() tea.Msg {
		return queueResultMsg{err: m.commands.Dequeue(ctx, position)}
	}
}

func (m Model) clearQueue() tea.Cmd {
	if !m.queueView.ShowClear {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return queueResultMsg{err: m.commands.ClearQueue(ctx)}
	}
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Pane: m.focus.String()}); err != nil {
		m.logger.Warn().Err(err).Msg("save prefs failed")
	}
}

// Messages

type storeMsg state.Change

type nodeMsg struct{ playlist int }

type logoMsg string

type uploadMsg upload.Status

type uploadDoneMsg struct{ err error }

type queueResultMsg struct{ err error }

type loadDoneMsg struct {
	playlist int
	err      error
}

type logLoadedMsg struct {
	entries []logtail.Entry
	err     error
}
