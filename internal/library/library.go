package library

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/alsdbtjd0103/norae/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// DefaultPlaylistName is the fixed name given to the lazily created default
// playlist. It mirrors one representative take per song.
const DefaultPlaylistName = "대표곡"

// Library is the persistence and derivation engine over the record store.
type Library struct {
	songs     *storage.Collection[models.Song]
	versions  *storage.Collection[models.Version]
	playlists *storage.Collection[models.Playlist]
	items     *storage.Collection[models.PlaylistItem]
	assets    *storage.AssetStore
	logger    *log.Logger

	// syncMu makes the whole sync pass a critical section: read current
	// items, diff, apply removals, apply additions, with no interleaved
	// mutation of the default playlist.
	syncMu sync.Mutex

	legacyOnce sync.Once
}

// New creates a Library over the given store and asset store.
func New(store *storage.Store, assets *storage.AssetStore, logger *log.Logger) *Library {
	return &Library{
		songs:     storage.NewCollection[models.Song](store, storage.SongsKey),
		versions:  storage.NewCollection[models.Version](store, storage.VersionsKey),
		playlists: storage.NewCollection[models.Playlist](store, storage.PlaylistsKey),
		items:     storage.NewCollection[models.PlaylistItem](store, storage.PlaylistItemsKey),
		assets:    assets,
		logger:    logger,
	}
}

// AddSong creates a song with an empty default pointer and returns its id.
//
// Title validation is the caller's job; the engine persists what it is given.
func (l *Library) AddSong(title, artist string) (string, error) {
	now := time.Now()
	song := models.Song{
		ID:        shared.GenerateID(),
		Title:     title,
		Artist:    artist,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := l.songs.Update(func(songs []models.Song) ([]models.Song, error) {
		return append(songs, song), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to add song: %w", err)
	}

	l.logger.Debug("song added", "id", song.ID, "title", title)
	return song.ID, nil
}

// GetSong retrieves a song by id.
func (l *Library) GetSong(songID string) (*models.Song, error) {
	song, ok := lo.Find(l.songs.Load(), func(s models.Song) bool { return s.ID == songID })
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	return &song, nil
}

// GetAllSongs returns every song sorted by UpdatedAt descending.
//
// Corrupted or missing storage yields an empty list, never an error.
func (l *Library) GetAllSongs() []models.Song {
	songs := l.songs.Load()
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].UpdatedAt.After(songs[j].UpdatedAt)
	})
	return songs
}

// GetSongWithVersions returns a song joined to its takes, newest-first, with
// the latest and designated takes resolved.
func (l *Library) GetSongWithVersions(songID string) (*models.SongWithVersions, error) {
	song, err := l.GetSong(songID)
	if err != nil {
		return nil, err
	}

	versions := l.GetVersionsBySong(songID)
	detail := &models.SongWithVersions{Song: *song, Versions: versions}
	if len(versions) > 0 {
		detail.LatestVersion = &versions[0]
	}
	if song.DefaultVersionID != "" {
		if dv, ok := lo.Find(versions, func(v models.Version) bool { return v.ID == song.DefaultVersionID }); ok {
			detail.DefaultVersion = &dv
		}
	}
	return detail, nil
}

// UpdateSongDefaultVersion sets or clears (versionID == "") a song's
// representative take and immediately re-derives the default playlist, so the
// change is reflected before the call returns.
func (l *Library) UpdateSongDefaultVersion(songID, versionID string) error {
	found := false
	err := l.songs.Update(func(songs []models.Song) ([]models.Song, error) {
		for i := range songs {
			if songs[i].ID == songID {
				songs[i].DefaultVersionID = versionID
				songs[i].UpdatedAt = time.Now()
				found = true
				break
			}
		}
		return songs, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update default version: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}

	return l.SyncDefaultPlaylist()
}

// DeleteSong cascades: every take owned by the song is deleted (which in turn
// scrubs playlist items and the default playlist), then the song record and
// its recordings directory are removed.
func (l *Library) DeleteSong(songID string) error {
	for _, version := range l.GetVersionsBySong(songID) {
		if err := l.DeleteVersion(version.ID); err != nil {
			return fmt.Errorf("failed to cascade version delete: %w", err)
		}
	}

	err := l.songs.Update(func(songs []models.Song) ([]models.Song, error) {
		return lo.Filter(songs, func(s models.Song, _ int) bool { return s.ID != songID }), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	l.assets.DeleteSongDir(songID)
	l.logger.Debug("song deleted", "id", songID)
	return nil
}

// AddVersion creates a take for a song and bumps the song's UpdatedAt. The
// take is not made the default automatically.
func (l *Library) AddVersion(songID, fileName, storageURL string, rating int, duration float64, memo string) (string, error) {
	now := time.Now()
	version := models.Version{
		ID:         shared.GenerateID(),
		SongID:     songID,
		FileName:   fileName,
		StorageURL: storageURL,
		Rating:     rating,
		Duration:   duration,
		RecordedAt: now,
		Memo:       memo,
	}
	if err := version.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	err := l.versions.Update(func(versions []models.Version) ([]models.Version, error) {
		return append(versions, version), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to add version: %w", err)
	}

	err = l.songs.Update(func(songs []models.Song) ([]models.Song, error) {
		for i := range songs {
			if songs[i].ID == songID {
				songs[i].UpdatedAt = now
				break
			}
		}
		return songs, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to touch song: %w", err)
	}

	l.logger.Debug("version added", "id", version.ID, "song", songID, "rating", rating)
	return version.ID, nil
}

// AddRecordedVersion persists a freshly captured recording through the asset
// store, then registers it as a take. The copied asset is removed again if
// the record cannot be written.
func (l *Library) AddRecordedVersion(songID, sourcePath string, rating int, duration float64, memo string) (string, error) {
	fileName, localURL, err := l.assets.Save(songID, sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to store recording: %w", err)
	}

	versionID, err := l.AddVersion(songID, fileName, localURL, rating, duration, memo)
	if err != nil {
		l.assets.Delete(localURL)
		return "", err
	}
	return versionID, nil
}

// GetVersion retrieves a take by id.
func (l *Library) GetVersion(versionID string) (*models.Version, error) {
	version, ok := lo.Find(l.versions.Load(), func(v models.Version) bool { return v.ID == versionID })
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrVersionNotFound, versionID)
	}
	return &version, nil
}

// GetVersionsBySong returns a song's takes sorted by RecordedAt descending.
func (l *Library) GetVersionsBySong(songID string) []models.Version {
	versions := lo.Filter(l.versions.Load(), func(v models.Version, _ int) bool {
		return v.SongID == songID
	})
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].RecordedAt.After(versions[j].RecordedAt)
	})
	return versions
}

// VersionUpdate carries a partial update for a take; nil fields are unchanged.
type VersionUpdate struct {
	Rating *int
	Memo   *string
}

// UpdateVersion applies a partial update to a take.
func (l *Library) UpdateVersion(versionID string, updates VersionUpdate) error {
	found := false
	err := l.versions.Update(func(versions []models.Version) ([]models.Version, error) {
		for i := range versions {
			if versions[i].ID != versionID {
				continue
			}
			if updates.Rating != nil {
				versions[i].Rating = *updates.Rating
			}
			if updates.Memo != nil {
				versions[i].Memo = *updates.Memo
			}
			if err := versions[i].Validate(); err != nil {
				return nil, fmt.Errorf("validation failed: %w", err)
			}
			found = true
			break
		}
		return versions, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", shared.ErrVersionNotFound, versionID)
	}
	return nil
}

// DeleteVersion removes a take, every playlist item referencing it, and its
// audio asset. If the take was its song's representative, the pointer is
// cleared and the default playlist re-derived as part of the cascade.
func (l *Library) DeleteVersion(versionID string) error {
	version, err := l.GetVersion(versionID)
	if err != nil {
		return err
	}

	err = l.versions.Update(func(versions []models.Version) ([]models.Version, error) {
		return lo.Filter(versions, func(v models.Version, _ int) bool { return v.ID != versionID }), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}

	err = l.items.Update(func(items []models.PlaylistItem) ([]models.PlaylistItem, error) {
		return lo.Filter(items, func(it models.PlaylistItem, _ int) bool { return it.VersionID != versionID }), nil
	})
	if err != nil {
		return fmt.Errorf("failed to scrub playlist items: %w", err)
	}

	wasDefault := false
	err = l.songs.Update(func(songs []models.Song) ([]models.Song, error) {
		for i := range songs {
			if songs[i].ID == version.SongID && songs[i].DefaultVersionID == versionID {
				songs[i].DefaultVersionID = ""
				songs[i].UpdatedAt = time.Now()
				wasDefault = true
				break
			}
		}
		return songs, nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear default pointer: %w", err)
	}

	if wasDefault {
		if err := l.SyncDefaultPlaylist(); err != nil {
			return err
		}
	}

	l.assets.Delete(version.StorageURL)
	l.logger.Debug("version deleted", "id", versionID, "song", version.SongID)
	return nil
}
