// Package cache provides the in-process caches of a search run.
//
// # Table Cache
//
// LRU holds whole blobs (symmetry and volume tables) read from remote
// stores, bounded by a byte capacity and, optionally, the memory budget of a
// resource.Controller.
//
// # Volume Memo
//
// Memo remembers the outcome of every volume solve of a run, keyed by
// manifold, slope and precision. Concurrent requests for the same key share
// one computation, so a slope is solved at most once per precision even when
// Check and Verify revisit it.
package cache
