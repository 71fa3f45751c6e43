package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Event is one decoded push notification.
type Event interface {
	eventType() string
}

// PlayerStateEvent carries a complete replacement player state.
type PlayerStateEvent struct {
	State PlayerState
}

// LibraryUpdatedEvent says the playlist library changed on disk.
type LibraryUpdatedEvent struct{}

// QueueUpdatedEvent carries the complete new queue.
type QueueUpdatedEvent struct {
	Queue []QueueEntry
}

func (PlayerStateEvent) eventType() string    { return EventPlayerState }
func (LibraryUpdatedEvent) eventType() string { return EventLibraryUpdated }
func (QueueUpdatedEvent) eventType() string   { return EventQueueUpdated }

// EventType returns the wire discriminator of ev.
func EventType(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventType()
}

// Wire discriminators of the notifications channel.
const (
	EventPlayerState    = "playerState"
	EventLibraryUpdated = "libraryUpdated"
	EventQueueUpdated   = "queueUpdated"
)

// ErrUnknownEvent is returned by DecodeEvent for a type it does not handle.
var ErrUnknownEvent = errors.New("unknown event type")

// DecodeEvent decodes one internally tagged notification object.
func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	switch head.Type {
	case EventPlayerState:
		var state PlayerState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return PlayerStateEvent{State: state}, nil
	case EventLibraryUpdated:
		return LibraryUpdatedEvent{}, nil
	case EventQueueUpdated:
		var body struct {
			Queue json.RawMessage `json:"queue"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		if len(body.Queue) == 0 {
			return nil, fmt.Errorf("decode %s: missing queue", head.Type)
		}
		// null is an empty queue; an absent key is not.
		var queue []QueueEntry
		if err := json.Unmarshal(body.Queue, &queue); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		if queue == nil {
			queue = []QueueEntry{}
		}
		return QueueUpdatedEvent{Queue: queue}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEvent, head.Type)
}

// EventStream reads server-sent event frames from the notifications
// endpoint in the order the server wrote them.
type EventStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	id     string
}

func newEventStream(body io.ReadCloser, id string) *EventStream {
	return &EventStream{body: body, reader: bufio.NewReaderSize(body, 64*1024), id: id}
}

// ID is the request id the subscription was opened with.
func (s *EventStream) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Next blocks until a complete frame arrives and returns its data payload.
// Frames without data lines (keep-alive comments) are skipped. io.EOF means
// the server closed the stream.
func (s *EventStream) Next() ([]byte, error) {
	var data bytes.Buffer
	hasData := false
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			// An unterminated frame at EOF is incomplete and discarded.
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				return data.Bytes(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field != "data" {
			continue
		}
		if hasData {
			data.WriteByte('\n')
		}
		data.WriteString(value)
		hasData = true
	}
}

// Close releases the underlying connection.
func (s *EventStream) Close() error {
	if s == nil || s.body == nil {
		return nil
	}
	return s.body.Close()
}
