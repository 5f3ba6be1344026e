// Package models defines domain entities for the karaoke practice library.
//
// The package contains two categories of types:
//
// 1. Persisted records, serialized as JSON into the flat record store:
//   - [Song] : A song the user practices, with an optional default take pointer
//   - [Version] : One recorded take of a song, owned by that song
//   - [Playlist] : A named, ordered collection of takes; exactly one is the default
//   - [PlaylistItem] : Membership edge from a playlist to a take, with ordering
//
// 2. Joined views assembled by the library engine for consumers:
//   - [DefaultVersion] : A song paired with its designated representative take
//   - [SongWithVersions] : A song with its takes resolved newest-first
//   - [DetailedItem] : A playlist item joined to its song and take
//   - [PlaylistDetail] : A playlist with all items joined
//
// Dates round-trip as RFC 3339 strings through JSON. Identifiers are opaque
// strings minted by shared.GenerateID at creation time.
package models
