// Package lazy provides a per-key fetch-on-demand cache for expandable
// hierarchical data, used for the tracks under each playlist.
//
// Each key moves through Unloaded → Loading → Loaded or Error. Expand only
// starts a fetch from Unloaded or Error, and it flips the node to Loading
// before returning, so a double expand issues one request. Visibility is
// separate from the cache: Collapse hides a node without forgetting it.
// Invalidate drops every node at once and bumps a generation counter so a
// fetch that was in flight cannot repopulate the new cache.
package lazy
