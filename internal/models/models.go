package models

import (
	"fmt"
	"time"

	"github.com/alsdbtjd0103/norae/internal/shared"
)

// Song is one entry in the practice library.
//
// DefaultVersionID is a weak reference to the take the user designated as
// representative; it drives the default playlist's membership and may be empty.
type Song struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	DefaultVersionID string    `json:"defaultVersionId,omitempty"`
}

// Validate checks the song's data and returns an error if it is not persistable.
func (s Song) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	return nil
}

// Version is one recorded take, exclusively owned by its song.
type Version struct {
	ID         string    `json:"id"`
	SongID     string    `json:"songId"`
	FileName   string    `json:"fileName"`
	StorageURL string    `json:"storageUrl"`
	Rating     int       `json:"rating"`
	Duration   float64   `json:"duration,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
	Memo       string    `json:"memo,omitempty"`
}

// Validate checks the take's data and returns an error if it is not persistable.
func (v Version) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: version id is required", shared.ErrInvalidInput)
	}
	if v.SongID == "" {
		return fmt.Errorf("%w: version song id is required", shared.ErrInvalidInput)
	}
	if v.Rating < 1 || v.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", shared.ErrInvalidInput, v.Rating)
	}
	return nil
}

// Playlist is a named collection of takes. Exactly one playlist in the store
// has IsDefault set; it mirrors every song's representative take and cannot be
// deleted.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlaylistItem is a membership edge from a playlist to a take.
//
// Order values need not be contiguous after removals; consumers sort by Order
// ascending, never by array position.
type PlaylistItem struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	VersionID  string    `json:"versionId"`
	Order      int       `json:"order"`
	AddedAt    time.Time `json:"addedAt"`
}

// DefaultVersion pairs a song with its designated representative take.
type DefaultVersion struct {
	Song    Song    `json:"song"`
	Version Version `json:"version"`
}

// SongWithVersions is the detail view of a song: takes sorted newest-first,
// with the latest and the designated take resolved when present.
type SongWithVersions struct {
	Song
	Versions       []Version `json:"versions"`
	LatestVersion  *Version  `json:"latestVersion,omitempty"`
	DefaultVersion *Version  `json:"defaultVersion,omitempty"`
}

// DetailedItem is a playlist item joined to its take and owning song.
type DetailedItem struct {
	PlaylistItem
	Song    Song    `json:"song"`
	Version Version `json:"version"`
}

// PlaylistDetail is a playlist with all surviving items joined; items whose
// take or song no longer exists are omitted rather than reported as errors.
type PlaylistDetail struct {
	Playlist
	Items []DetailedItem `json:"items"`
}
