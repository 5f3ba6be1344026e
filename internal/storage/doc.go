// Package storage implements the persistence primitives beneath the library engine.
//
// Records live in a single flat key-value namespace (a sqlite table) holding one
// JSON array per collection under a fixed key. [Collection] wraps one such key
// with typed load/save and a mutex that serializes read-modify-write cycles, so
// overlapping mutations to the same collection cannot lose updates.
//
// [AssetStore] owns the recorded audio files on disk, one directory per song.
package storage
