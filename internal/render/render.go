// Package render turns store contents into display rows. Every function is
// pure: the same input always yields the same output and nothing is fetched
// or mutated.
package render

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/five82/tonearm/internal/api"
	"github.com/five82/tonearm/internal/lazy"
)

// Status glyphs.
const (
	GlyphStopped = "■"
	GlyphPlaying = "▶"
	GlyphPaused  = "⏸"
)

// Tree markers and placeholder texts.
const (
	MarkerCollapsed = "▸"
	MarkerExpanded  = "▾"
	TextLoading     = "Loading…"
	TextEmptyNode   = "(empty)"
	TextEmptyQueue  = "Queue is empty"
	TextNoStreams   = "No streams"
	TextNoPlaylists = "No playlists"
)

// StatusLine is the rendered player status.
type StatusLine struct {
	Glyph string
	Text  string
}

func (s StatusLine) String() string {
	return s.Glyph + " " + s.Text
}

// Status renders a player state. A stopped player ignores its source.
func Status(ps api.PlayerState) StatusLine {
	switch ps.Mode {
	case api.ModePlaying:
		return StatusLine{Glyph: GlyphPlaying, Text: describe(ps.Mode, ps.Source)}
	case api.ModePaused:
		return StatusLine{Glyph: GlyphPaused, Text: describe(ps.Mode, ps.Source)}
	default:
		return StatusLine{Glyph: GlyphStopped, Text: api.ModeStopped.String()}
	}
}

func describe(mode api.Mode, src api.SourceInfo) string {
	switch s := src.(type) {
	case api.StreamSource:
		if s.StreamName != "" {
			return s.StreamName
		}
	case api.PlaylistSource:
		track := trackLine(s.TrackTitle, s.Artist)
		switch {
		case s.PlaylistName != "" && track != "":
			return s.PlaylistName + " · " + track
		case s.PlaylistName != "":
			return s.PlaylistName
		case track != "":
			return track
		}
	case api.QueueSource:
		if track := trackLine(s.TrackTitle, s.Artist); track != "" {
			return track
		}
	}
	return mode.String()
}

// trackLine formats "title — artist", dropping whichever part is missing.
func trackLine(title, artist string) string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	switch {
	case title != "" && artist != "":
		return title + " — " + artist
	case title != "":
		return title
	default:
		return artist
	}
}

// StreamRow is one line of the stream catalog.
type StreamRow struct {
	Index      int
	Label      string
	HasLogo    bool
	LogoCached bool
}

// Streams renders the stream catalog. cached reports whether a logo for the
// named stream is available locally; it may be nil.
func Streams(streams []api.StreamDescriptor, cached func(name string) bool) []StreamRow {
	rows := make([]StreamRow, 0, len(streams))
	for _, s := range streams {
		row := StreamRow{Index: s.Index, Label: s.Name, HasLogo: s.HasLogo}
		if s.HasLogo && cached != nil {
			row.LogoCached = cached(s.Name)
		}
		rows = append(rows, row)
	}
	return rows
}

// RowKind classifies a library row.
type RowKind int

const (
	RowPlaylist RowKind = iota
	RowTrack
	RowLoading
	RowError
	RowEmpty
)

// LibraryRow is one line of the flattened playlist tree.
type LibraryRow struct {
	Kind          RowKind
	PlaylistIndex int
	TrackIndex    int // valid for RowTrack
	Depth         int
	Expanded      bool // valid for RowPlaylist
	Label         string
}

// Selectable reports whether the cursor may rest on the row.
func (r LibraryRow) Selectable() bool {
	return r.Kind == RowPlaylist || r.Kind == RowTrack
}

// TrackNode is the lazy node type holding a playlist's tracks.
type TrackNode = lazy.Node[[]api.TrackDescriptor]

// Library flattens the playlist tree. node returns the cache entry for a
// playlist index; children are emitted only for visible nodes.
func Library(playlists []api.PlaylistDescriptor, node func(playlistIndex int) TrackNode) []LibraryRow {
	rows := make([]LibraryRow, 0, len(playlists))
	for _, p := range playlists {
		var n TrackNode
		if node != nil {
			n = node(p.Index)
		}
		marker := MarkerCollapsed
		if n.Visible {
			marker = MarkerExpanded
		}
		rows = append(rows, LibraryRow{
			Kind:          RowPlaylist,
			PlaylistIndex: p.Index,
			Expanded:      n.Visible,
			Label:         marker + " " + p.Name,
		})
		if !n.Visible {
			continue
		}
		rows = append(rows, children(p.Index, n)...)
	}
	return rows
}

func children(playlist int, n TrackNode) []LibraryRow {
	child := func(kind RowKind, label string) LibraryRow {
		return LibraryRow{Kind: kind, PlaylistIndex: playlist, Depth: 1, Label: label}
	}
	switch n.State {
	case lazy.Loading, lazy.Unloaded:
		return []LibraryRow{child(RowLoading, TextLoading)}
	case lazy.Error:
		msg := "Failed to load tracks"
		if n.Err != nil {
			msg += ": " + n.Err.Error()
		}
		return []LibraryRow{child(RowError, msg)}
	}
	if len(n.Value) == 0 {
		return []LibraryRow{child(RowEmpty, TextEmptyNode)}
	}
	rows := make([]LibraryRow, 0, len(n.Value))
	for _, t := range n.Value {
		label := trackLine(t.Title, t.Artist)
		if label == "" {
			label = "Track " + strconv.Itoa(t.Index+1)
		}
		row := child(RowTrack, label)
		row.TrackIndex = t.Index
		rows = append(rows, row)
	}
	return rows
}

// QueueRow is one queued entry.
type QueueRow struct {
	Position int // zero-based, as sent to the dequeue command
	Label    string
	Text     string
	Detail   string
}

// QueueView is the rendered queue.
type QueueView struct {
	Empty     bool
	EmptyText string
	ShowClear bool
	Rows      []QueueRow
}

// Queue renders the play queue in list order with 1-based labels. An empty
// queue hides the clear control.
func Queue(entries []api.QueueEntry) QueueView {
	if len(entries) == 0 {
		return QueueView{Empty: true, EmptyText: TextEmptyQueue}
	}
	rows := make([]QueueRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, QueueRow{
			Position: i,
			Label:    strconv.Itoa(i+1) + ".",
			Text:     trackLine(e.TrackTitle, e.TrackArtist),
			Detail:   e.PlaylistName,
		})
	}
	return QueueView{ShowClear: true, Rows: rows}
}

// Truncate shortens s to at most width terminal cells, ending in "…" when
// something was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
