package lazy

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// State is the load state of one node.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unloaded"
	}
}

// Node is a copy of one cache entry. Value is meaningful only when State is
// Loaded and Err only when State is Error.
type Node[V any] struct {
	State   State
	Value   V
	Err     error
	Visible bool
}

// FetchFunc loads the children of key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// LoadFunc performs a fetch started by Expand and settles the node. It
// returns the fetch error, if any, for the caller to log.
type LoadFunc func() error

// Listener is called after every node transition, outside the loader lock.
type Listener[K comparable, V any] func(key K, node Node[V])

// Loader is a memoizing fetch-on-demand cache keyed by K.
type Loader[K comparable, V any] struct {
	fetch FetchFunc[K, V]
	clone func(V) V

	mu         sync.Mutex
	nodes      map[K]*Node[V]
	generation uint64
	listeners  map[int]Listener[K, V]
	nextID     int
}

// New builds a Loader. clone, when non-nil, copies values handed out by Node
// and listeners so callers never share the cached value.
func New[K comparable, V any](fetch FetchFunc[K, V], clone func(V) V) *Loader[K, V] {
	return &Loader[K, V]{
		fetch:     fetch,
		clone:     clone,
		nodes:     make(map[K]*Node[V]),
		listeners: make(map[int]Listener[K, V]),
	}
}

// Subscribe registers fn for every subsequent transition.
func (l *Loader[K, V]) Subscribe(fn Listener[K, V]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// Expand makes key visible. When the node is Unloaded or Error it moves to
// Loading before Expand returns and the returned LoadFunc performs the
// fetch. For a Loading or Loaded node Expand returns nil, so a second expand
// while a fetch is in flight never issues another request.
func (l *Loader[K, V]) Expand(ctx context.Context, key K) LoadFunc {
	l.mu.Lock()
	node := l.nodeLocked(key)
	node.Visible = true
	needsFetch := node.State == Unloaded || node.State == Error
	if needsFetch {
		node.State = Loading
		node.Err = nil
		var zero V
		node.Value = zero
	}
	gen := l.generation
	snap := l.copyLocked(node)
	listeners := l.listenersLocked()
	l.mu.Unlock()

	notify(listeners, key, snap)
	if !needsFetch {
		return nil
	}
	return func() error {
		return l.load(ctx, key, gen)
	}
}

// Collapse hides key. The cached value is kept.
func (l *Loader[K, V]) Collapse(key K) {
	l.mu.Lock()
	node, ok := l.nodes[key]
	if !ok || !node.Visible {
		l.mu.Unlock()
		return
	}
	node.Visible = false
	snap := l.copyLocked(node)
	listeners := l.listenersLocked()
	l.mu.Unlock()

	notify(listeners, key, snap)
}

// Toggle collapses a visible node and expands a hidden one.
func (l *Loader[K, V]) Toggle(ctx context.Context, key K) LoadFunc {
	l.mu.Lock()
	node, ok := l.nodes[key]
	visible := ok && node.Visible
	l.mu.Unlock()

	if visible {
		l.Collapse(key)
		return nil
	}
	return l.Expand(ctx, key)
}

// Invalidate discards every node. Fetches still in flight settle into the
// discarded generation and are ignored.
func (l *Loader[K, V]) Invalidate() {
	l.mu.Lock()
	keys := make([]K, 0, len(l.nodes))
	for key := range l.nodes {
		keys = append(keys, key)
	}
	l.nodes = make(map[K]*Node[V])
	l.generation++
	listeners := l.listenersLocked()
	l.mu.Unlock()

	for _, key := range keys {
		notify(listeners, key, Node[V]{})
	}
}

// Node returns a copy of the node for key. Unknown keys report Unloaded.
func (l *Loader[K, V]) Node(key K) Node[V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	node, ok := l.nodes[key]
	if !ok {
		return Node[V]{}
	}
	return l.copyLocked(node)
}

// currentGeneration counts invalidations.
func (l *Loader[K, V]) currentGeneration() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

func (l *Loader[K, V]) load(ctx context.Context, key K, gen uint64) error {
	var (
		value V
		err   error
	)
	if l.fetch == nil {
		err = fmt.Errorf("lazy: no fetch function")
	} else {
		value, err = l.fetch(ctx, key)
	}

	l.mu.Lock()
	node, ok := l.nodes[key]
	if gen != l.generation || !ok || node.State != Loading {
		l.mu.Unlock()
		return err
	}
	if err != nil {
		node.State = Error
		node.Err = err
	} else {
		node.State = Loaded
		node.Value = value
	}
	snap := l.copyLocked(node)
	listeners := l.listenersLocked()
	l.mu.Unlock()

	notify(listeners, key, snap)
	return err
}

func (l *Loader[K, V]) nodeLocked(key K) *Node[V] {
	node, ok := l.nodes[key]
	if !ok {
		node = &Node[V]{}
		l.nodes[key] = node
	}
	return node
}

func (l *Loader[K, V]) copyLocked(node *Node[V]) Node[V] {
	out := *node
	if l.clone != nil && out.State == Loaded {
		out.Value = l.clone(out.Value)
	}
	return out
}

func (l *Loader[K, V]) listenersLocked() []Listener[K, V] {
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Listener[K, V], len(ids))
	for i, id := range ids {
		out[i] = l.listeners[id]
	}
	return out
}

func notify[K comparable, V any](listeners []Listener[K, V], key K, node Node[V]) {
	for _, fn := range listeners {
		fn(key, node)
	}
}
