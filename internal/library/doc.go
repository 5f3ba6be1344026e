// Package library implements the persistence and derivation engine for the
// practice library.
//
// [Library] owns the four record collections (songs, takes, playlists,
// playlist items), enforces the cascade rules between them, and keeps the
// default playlist synchronized with every song's representative take. The
// sync pass is an explicit, idempotent function invoked eagerly at every
// mutation point that can invalidate the derived membership; the underlying
// store has no triggers, so there is nothing passive to lean on.
package library
