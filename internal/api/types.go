package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode is the daemon's playback mode.
type Mode int

const (
	ModeStopped Mode = iota
	ModePlaying
	ModePaused
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModePlaying:
		return "Playing"
	case ModePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// ParseMode maps a wire value onto a Mode, ignoring case and surrounding space.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "stopped":
		return ModeStopped, nil
	case "playing":
		return ModePlaying, nil
	case "paused":
		return ModePaused, nil
	}
	return ModeStopped, fmt.Errorf("unknown player mode %q", value)
}

// SourceInfo describes what the player is playing. The set of variants is
// closed: NoSource, StreamSource, PlaylistSource and QueueSource.
type SourceInfo interface {
	sourceKind() string
}

// NoSource means the daemon reported nothing loaded.
type NoSource struct{}

// StreamSource is a live radio stream.
type StreamSource struct {
	StreamName string
}

// PlaylistSource is a playlist, optionally narrowed to the current track.
type PlaylistSource struct {
	PlaylistName string
	TrackTitle   string
	Artist       string
}

// QueueSource is a track that was started from the play queue.
type QueueSource struct {
	TrackTitle string
	Artist     string
}

func (NoSource) sourceKind() string       { return "None" }
func (StreamSource) sourceKind() string   { return "Stream" }
func (PlaylistSource) sourceKind() string { return "Playlist" }
func (QueueSource) sourceKind() string    { return "Queue" }

// SourceKind returns the wire tag of src; nil reports "None".
func SourceKind(src SourceInfo) string {
	if src == nil {
		return NoSource{}.sourceKind()
	}
	return src.sourceKind()
}

// PlayerState is one complete snapshot of the remote player. It is always
// replaced as a whole, never patched.
type PlayerState struct {
	Mode   Mode
	Source SourceInfo
}

// StoppedState is the state assumed before the first fetch completes.
func StoppedState() PlayerState {
	return PlayerState{Mode: ModeStopped, Source: NoSource{}}
}

type sourceWire struct {
	Type         string `json:"type"`
	StreamName   string `json:"streamName,omitempty"`
	PlaylistName string `json:"playlistName,omitempty"`
	TrackTitle   string `json:"trackTitle,omitempty"`
	Artist       string `json:"artist,omitempty"`
}

type playerStateWire struct {
	Mode       *string     `json:"mode"`
	SourceInfo *sourceWire `json:"sourceInfo"`

	// Flat form sent by older daemons.
	SourceType *string `json:"source_type"`
	SourceName *string `json:"source_name"`
}

// ErrMissingMode is returned when a player state carries no mode.
var ErrMissingMode = errors.New("player state has no mode")

// UnmarshalJSON accepts both the tagged sourceInfo form and the flat
// source_type/source_name form. The mode is required.
func (s *PlayerState) UnmarshalJSON(data []byte) error {
	var wire playerStateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Mode == nil || strings.TrimSpace(*wire.Mode) == "" {
		return ErrMissingMode
	}
	mode, err := ParseMode(*wire.Mode)
	if err != nil {
		return err
	}
	src, err := wire.source()
	if err != nil {
		return err
	}
	*s = PlayerState{Mode: mode, Source: src}
	return nil
}

// MarshalJSON always writes the tagged form.
func (s PlayerState) MarshalJSON() ([]byte, error) {
	wire := struct {
		Mode       string     `json:"mode"`
		SourceInfo sourceWire `json:"sourceInfo"`
	}{Mode: s.Mode.String()}
	switch src := s.Source.(type) {
	case StreamSource:
		wire.SourceInfo = sourceWire{Type: "Stream", StreamName: src.StreamName}
	case PlaylistSource:
		wire.SourceInfo = sourceWire{Type: "Playlist", PlaylistName: src.PlaylistName, TrackTitle: src.TrackTitle, Artist: src.Artist}
	case QueueSource:
		wire.SourceInfo = sourceWire{Type: "Queue", TrackTitle: src.TrackTitle, Artist: src.Artist}
	default:
		wire.SourceInfo = sourceWire{Type: "None"}
	}
	return json.Marshal(wire)
}

func (w playerStateWire) source() (SourceInfo, error) {
	if w.SourceInfo != nil {
		return w.SourceInfo.decode()
	}
	if w.SourceType == nil || w.SourceName == nil {
		return NoSource{}, nil
	}
	name := *w.SourceName
	switch strings.ToLower(*w.SourceType) {
	case "stream":
		return StreamSource{StreamName: name}, nil
	case "playlist":
		return PlaylistSource{PlaylistName: name}, nil
	}
	return nil, fmt.Errorf("unknown source_type %q", *w.SourceType)
}

func (w sourceWire) decode() (SourceInfo, error) {
	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case "", "none":
		return NoSource{}, nil
	case "stream":
		return StreamSource{StreamName: w.StreamName}, nil
	case "playlist":
		return PlaylistSource{PlaylistName: w.PlaylistName, TrackTitle: w.TrackTitle, Artist: w.Artist}, nil
	case "queue":
		return QueueSource{TrackTitle: w.TrackTitle, Artist: w.Artist}, nil
	}
	return nil, fmt.Errorf("unknown sourceInfo type %q", w.Type)
}

// StreamDescriptor is one entry of the stream catalog.
type StreamDescriptor struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	HasLogo bool   `json:"hasLogo"`
}

// PlaylistDescriptor is one entry of the playlist catalog.
type PlaylistDescriptor struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// TrackDescriptor is a track inside one playlist. Index is only unique
// within its parent playlist.
type TrackDescriptor struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// QueueEntry is a queued track. Its fields were copied when the track was
// enqueued and do not follow later library edits.
type QueueEntry struct {
	TrackTitle   string `json:"trackTitle"`
	TrackArtist  string `json:"trackArtist,omitempty"`
	PlaylistName string `json:"playlistName"`
}

// UnmarshalJSON also accepts the snake_case keys of the original daemon.
func (q *QueueEntry) UnmarshalJSON(data []byte) error {
	var wire struct {
		TrackTitle        string `json:"trackTitle"`
		TrackArtist       string `json:"trackArtist"`
		PlaylistName      string `json:"playlistName"`
		SnakeTrackTitle   string `json:"track_title"`
		SnakeTrackArtist  string `json:"track_artist"`
		SnakePlaylistName string `json:"playlist_name"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*q = QueueEntry{
		TrackTitle:   firstNonEmpty(wire.TrackTitle, wire.SnakeTrackTitle),
		TrackArtist:  firstNonEmpty(wire.TrackArtist, wire.SnakeTrackArtist),
		PlaylistName: firstNonEmpty(wire.PlaylistName, wire.SnakePlaylistName),
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// QueueAddRequest is the body of POST /api/queue/add.
type QueueAddRequest struct {
	PlaylistIndex int `json:"playlistIndex"`
	TrackIndex    int `json:"trackIndex"`
}
