package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/tonearm/internal/api"
)

// Collection names one top-level value held by the Store.
type Collection int

const (
	CollectionPlayer Collection = iota + 1
	CollectionStreams
	CollectionPlaylists
	CollectionQueue
	CollectionLink
)

func (c Collection) String() string {
	switch c {
	case CollectionPlayer:
		return "player"
	case CollectionStreams:
		return "streams"
	case CollectionPlaylists:
		return "playlists"
	case CollectionQueue:
		return "queue"
	case CollectionLink:
		return "link"
	default:
		return fmt.Sprintf("collection(%d)", int(c))
	}
}

// Change is delivered to listeners after a replacement. Only the field
// matching Collection is populated; it is a private copy.
type Change struct {
	Collection Collection
	Player     api.PlayerState
	Streams    []api.StreamDescriptor
	Playlists  []api.PlaylistDescriptor
	Queue      []api.QueueEntry
	Link       Link
}

// Link describes the push channel connection.
type Link struct {
	Connected           bool
	LastError           error
	ConsecutiveFailures int // failed connect attempts since the last success
	LastEvent           time.Time
	LastChange          time.Time
}

// IsOffline returns true when the daemon has been unreachable for multiple attempts.
func (l Link) IsOffline() bool {
	return !l.Connected && l.ConsecutiveFailures >= 2
}

// Snapshot is a point-in-time copy of everything the Store holds.
type Snapshot struct {
	Player    api.PlayerState
	HasPlayer bool
	Streams   []api.StreamDescriptor
	Playlists []api.PlaylistDescriptor
	Queue     []api.QueueEntry
	Link      Link
}

// Listener receives store changes. It runs on the goroutine that made the
// change, after the store lock has been released.
type Listener func(Change)

// Store holds the latest known daemon collections. The zero value is ready
// to use and reports a stopped player with empty collections.
type Store struct {
	mu        sync.RWMutex
	snapshot  Snapshot
	listeners map[int]Listener
	nextID    int
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// ReplacePlayerState swaps in a new player state.
func (s *Store) ReplacePlayerState(ps api.PlayerState) {
	if ps.Source == nil {
		ps.Source = api.NoSource{}
	}
	s.mu.Lock()
	s.snapshot.Player = ps
	s.snapshot.HasPlayer = true
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{Collection: CollectionPlayer, Player: ps})
}

// ReplaceStreams swaps in a new stream catalog.
func (s *Store) ReplaceStreams(streams []api.StreamDescriptor) {
	stored := cloneSlice(streams)
	s.mu.Lock()
	s.snapshot.Streams = stored
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{Collection: CollectionStreams, Streams: cloneSlice(stored)})
}

// ReplacePlaylists swaps in a new playlist catalog.
func (s *Store) ReplacePlaylists(playlists []api.PlaylistDescriptor) {
	stored := cloneSlice(playlists)
	s.mu.Lock()
	s.snapshot.Playlists = stored
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{Collection: CollectionPlaylists, Playlists: cloneSlice(stored)})
}

// ReplaceQueue swaps in a new play queue.
func (s *Store) ReplaceQueue(queue []api.QueueEntry) {
	stored := cloneSlice(queue)
	s.mu.Lock()
	s.snapshot.Queue = stored
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{Collection: CollectionQueue, Queue: cloneSlice(stored)})
}

// MarkConnected records a successful subscription and resets the failure count.
func (s *Store) MarkConnected() {
	s.updateLink(func(l *Link) {
		l.Connected = true
		l.LastError = nil
		l.ConsecutiveFailures = 0
	})
}

// MarkDisconnected records a failed or dropped subscription. The collections
// keep their last known values.
func (s *Store) MarkDisconnected(err error) {
	s.updateLink(func(l *Link) {
		l.Connected = false
		l.LastError = err
		l.ConsecutiveFailures++
	})
}

// MarkEvent stamps the arrival time of a push event without notifying.
func (s *Store) MarkEvent(at time.Time) {
	s.mu.Lock()
	s.snapshot.Link.LastEvent = at
	s.mu.Unlock()
}

func (s *Store) updateLink(mutate func(*Link)) {
	s.mu.Lock()
	mutate(&s.snapshot.Link)
	s.snapshot.Link.LastChange = time.Now()
	link := cloneLink(s.snapshot.Link)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{Collection: CollectionLink, Link: link})
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if !snap.HasPlayer {
		snap.Player = api.StoppedState()
	}
	snap.Streams = cloneSlice(s.snapshot.Streams)
	snap.Playlists = cloneSlice(s.snapshot.Playlists)
	snap.Queue = cloneSlice(s.snapshot.Queue)
	snap.Link = cloneLink(s.snapshot.Link)
	return snap
}

func (s *Store) listenersLocked() []Listener {
	if len(s.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	// Deliver in subscription order.
	slices.Sort(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}

func (s *Store) notify(listeners []Listener, change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}

func cloneLink(l Link) Link {
	if l.LastError != nil {
		l.LastError = fmt.Errorf("%w", l.LastError)
	}
	return l
}

// cloneSlice never returns nil.
func cloneSlice[T any](items []T) []T {
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
