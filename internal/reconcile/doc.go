// Package reconcile keeps the state store in step with the player daemon.
//
// # Overview
//
// A Reconciler owns the one push subscription (GET /api/notifications). It
// decodes every frame and turns it into exactly one store mutation, a cache
// invalidation, or both. The client never derives state from commands it
// issued; it waits for the daemon to announce the result.
//
// # Event Handling
//
//	playerState     → store.ReplacePlayerState(payload)
//	libraryUpdated  → cache.Invalidate(), FetchPlaylists, store.ReplacePlaylists
//	queueUpdated    → store.ReplaceQueue(payload)
//	anything else   → logged as "dropped push event", store untouched
//
// Frames are applied one at a time on the Run goroutine, in the order the
// stream delivers them. A libraryUpdated event blocks later events until the
// playlist re-fetch finishes.
//
// # Connection Lifecycle
//
//	┌───────────┐   ok    ┌──────────────┐        ┌──────────────┐
//	│ subscribe │───────→│ invalidate + │──────→│ apply frames │
//	└─────┬─────┘         │ full refresh │        └──────┬───────┘
//	      │ error          └──────────────┘               │ error / EOF
//	      ↓                                              ↓
//	┌──────────────────────────────────────────────────────────┐
//	│ store.MarkDisconnected, wait calculateBackoff(failures)  │
//	└──────────────────────────────────────────────────────────┘
//
// The first successful subscribe doubles as the initial load. Every later
// one re-fetches all four collections too, because events published while
// the client was disconnected are gone. The refresh issues the four reads
// concurrently; each writes only its own collection and a failed read is
// logged and leaves the previous value.
//
// # Backoff
//
// The delay before reconnecting is Base·2^failures, capped at 30 seconds.
// The failure count resets after a successful subscribe:
//
//	failures  0    1    2    3    4+
//	delay     1s   2s   4s   8s   ...30s   (Base = 1s)
//
// # Ownership
//
// Only the Reconciler writes the store and only it calls Invalidate on the
// track cache. Everything else reads.
package reconcile
