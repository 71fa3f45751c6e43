// Package state holds the client's view of the player daemon.
//
// # Overview
//
// Store is the single source of truth for the four top-level collections the
// daemon owns: the player state, the stream catalog, the playlist catalog and
// the play queue. It also records the health of the push channel link so the
// header can show an offline indicator.
//
// # Writers and Readers
//
//	Reconciler goroutine:           UI (bubbletea loop):
//	┌──────────────────────┐       ┌──────────────────────┐
//	│ initial fetches      │       │                      │
//	│ push events          │       │                      │
//	│      ↓               │       │                      │
//	│ store.ReplaceQueue() │──────→│ Listener(Change)     │
//	│      ↓               │       │   → tea.Msg          │
//	│ listeners notified   │       │   → redraw one pane  │
//	└──────────────────────┘       └──────────────────────┘
//
// Only the reconciler writes. Every Replace* call is a total replacement of
// one collection, never a merge, and none of them can fail.
//
// # Change Notification
//
// After each replacement every subscribed Listener receives a Change naming
// only the replaced collection and carrying a private copy of its new value.
// Listeners run on the writer's goroutine after the lock has been released,
// so a listener may call Snapshot without deadlocking. The UI listener only
// forwards the Change into the bubbletea program.
//
//	unsubscribe := store.Subscribe(func(c state.Change) {
//		program.Send(storeChangeMsg(c))
//	})
//	defer unsubscribe()
//
// # Copies
//
// Slices are cloned on the way in and on the way out. Nothing returned by
// Snapshot or handed to a Listener aliases the store's own memory, so callers
// may sort or mutate what they receive.
//
// # Link Status
//
// MarkConnected and MarkDisconnected track the push subscription:
//
//   - Connected: a subscription is currently open
//   - LastError: why the last attempt or stream failed
//   - ConsecutiveFailures: failed attempts since the last success
//   - LastEvent: arrival time of the most recent push event
//
// Link.IsOffline reports true after two consecutive failures, the same
// threshold the header uses to switch to its offline style. Collections keep
// their last known values while offline.
//
// # Zero Value
//
// A zero Store is ready to use. Before the first ReplacePlayerState its
// Snapshot reports a stopped player with no source and HasPlayer false.
package state
