// Package api provides an HTTP client for the player daemon.
//
// # Overview
//
// The daemon exposes idempotent reads (player state, stream catalog, playlist
// catalog, tracks of one playlist, play queue, stream logos), one-way command
// endpoints, a multipart playlist upload and a server-sent notifications
// channel. This package turns those into typed Go calls and values.
//
// # Files
//
//   - client.go: Client, reads, Post for commands, Subscribe
//   - events.go: push event types, DecodeEvent, EventStream frame reader
//   - types.go: PlayerState with its closed SourceInfo variants, catalogs, queue
//   - upload.go: streamed multipart upload
//   - errors.go: APIError for non-2xx responses
//
// # Requests
//
// Every request carries Accept, a User-Agent of tonearm/<version> and a fresh
// X-Request-Id (UUIDv7) so daemon logs can be matched with client logs.
// Reads and commands use a bounded timeout; the notifications stream and
// uploads use a client without an overall timeout because both are long lived.
//
// # Errors
//
// Transport problems are returned wrapped ("execute request: ..."), bodies
// that fail to decode as "decode response: ...", and any non-2xx status as
// *APIError whose Reason is the daemon's own message when it sent one.
//
// # Notifications
//
// Subscribe returns an EventStream. Next yields the data payload of one frame
// at a time, in arrival order; DecodeEvent turns it into a PlayerStateEvent,
// LibraryUpdatedEvent or QueueUpdatedEvent. Unknown types wrap ErrUnknownEvent.
package api
