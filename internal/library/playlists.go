package library

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/samber/lo"
)

// CreatePlaylist creates a playlist and returns its id.
func (l *Library) CreatePlaylist(name string, isDefault bool) (string, error) {
	now := time.Now()
	playlist := models.Playlist{
		ID:        shared.GenerateID(),
		Name:      name,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := l.playlists.Update(func(playlists []models.Playlist) ([]models.Playlist, error) {
		return append(playlists, playlist), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	l.logger.Debug("playlist created", "id", playlist.ID, "name", name, "default", isDefault)
	return playlist.ID, nil
}

// getAllPlaylists loads the playlist collection after the one-time legacy
// cleanup has run.
func (l *Library) getAllPlaylists() []models.Playlist {
	l.legacyOnce.Do(l.stripLegacyDescriptions)
	return l.playlists.Load()
}

// stripLegacyDescriptions rewrites the playlist collection if any record still
// carries the removed description field. Decoding into the current struct
// drops the field, so a locked load/save round-trip is the whole migration.
func (l *Library) stripLegacyDescriptions() {
	raw, err := l.playlists.Store().Read(l.playlists.Key())
	if err != nil || raw == nil {
		return
	}

	var loose []map[string]any
	if json.Unmarshal(raw, &loose) != nil {
		return
	}
	hasLegacy := lo.SomeBy(loose, func(record map[string]any) bool {
		_, ok := record["description"]
		return ok
	})
	if !hasLegacy {
		return
	}

	l.logger.Info("migrating playlists: stripping legacy description field")
	if err := l.playlists.Update(func(playlists []models.Playlist) ([]models.Playlist, error) {
		return playlists, nil
	}); err != nil {
		l.logger.Warn("legacy playlist migration failed", "error", err)
	}
}

// GetPlaylists ensures the default playlist exists, then returns all playlists
// with the default one first and the rest sorted by CreatedAt ascending.
func (l *Library) GetPlaylists() ([]models.Playlist, error) {
	if _, err := l.EnsureDefaultPlaylist(); err != nil {
		return nil, err
	}

	playlists := l.getAllPlaylists()
	sort.SliceStable(playlists, func(i, j int) bool {
		if playlists[i].IsDefault != playlists[j].IsDefault {
			return playlists[i].IsDefault
		}
		return playlists[i].CreatedAt.Before(playlists[j].CreatedAt)
	})
	return playlists, nil
}

// GetPlaylist retrieves a playlist by id.
func (l *Library) GetPlaylist(playlistID string) (*models.Playlist, error) {
	playlist, ok := lo.Find(l.getAllPlaylists(), func(p models.Playlist) bool { return p.ID == playlistID })
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return &playlist, nil
}

// AddToPlaylist appends a take to a playlist at the given order position and
// returns the new item's id.
func (l *Library) AddToPlaylist(playlistID, versionID string, order int) (string, error) {
	item := models.PlaylistItem{
		ID:         shared.GenerateID(),
		PlaylistID: playlistID,
		VersionID:  versionID,
		Order:      order,
		AddedAt:    time.Now(),
	}

	err := l.items.Update(func(items []models.PlaylistItem) ([]models.PlaylistItem, error) {
		return append(items, item), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to add playlist item: %w", err)
	}
	return item.ID, nil
}

// GetPlaylistItems returns a playlist's items sorted by Order ascending.
// Order values need not be contiguous after removals.
func (l *Library) GetPlaylistItems(playlistID string) []models.PlaylistItem {
	items := lo.Filter(l.items.Load(), func(it models.PlaylistItem, _ int) bool {
		return it.PlaylistID == playlistID
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items
}

// RemoveFromPlaylist removes every item in the playlist referencing versionID.
func (l *Library) RemoveFromPlaylist(playlistID, versionID string) error {
	err := l.items.Update(func(items []models.PlaylistItem) ([]models.PlaylistItem, error) {
		return lo.Filter(items, func(it models.PlaylistItem, _ int) bool {
			return !(it.PlaylistID == playlistID && it.VersionID == versionID)
		}), nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove playlist item: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist and all its items. Deleting the default
// playlist is forbidden.
func (l *Library) DeletePlaylist(playlistID string) error {
	playlist, err := l.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	if playlist.IsDefault {
		return shared.ErrDefaultPlaylistProtected
	}

	err = l.items.Update(func(items []models.PlaylistItem) ([]models.PlaylistItem, error) {
		return lo.Filter(items, func(it models.PlaylistItem, _ int) bool { return it.PlaylistID != playlistID }), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete playlist items: %w", err)
	}

	err = l.playlists.Update(func(playlists []models.Playlist) ([]models.Playlist, error) {
		return lo.Filter(playlists, func(p models.Playlist, _ int) bool { return p.ID != playlistID }), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	l.logger.Debug("playlist deleted", "id", playlistID)
	return nil
}

// GetPlaylistWithDetails joins a playlist's items to their takes and songs.
// Items whose take or song no longer exists are dropped from the result, not
// reported as errors; dangling references are a tolerated state.
func (l *Library) GetPlaylistWithDetails(playlistID string) (*models.PlaylistDetail, error) {
	playlist, err := l.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}

	versions := lo.KeyBy(l.versions.Load(), func(v models.Version) string { return v.ID })
	songs := lo.KeyBy(l.songs.Load(), func(s models.Song) string { return s.ID })

	detail := &models.PlaylistDetail{Playlist: *playlist}
	detail.Items = lo.FilterMap(l.GetPlaylistItems(playlistID), func(it models.PlaylistItem, _ int) (models.DetailedItem, bool) {
		version, ok := versions[it.VersionID]
		if !ok {
			return models.DetailedItem{}, false
		}
		song, ok := songs[version.SongID]
		if !ok {
			return models.DetailedItem{}, false
		}
		return models.DetailedItem{PlaylistItem: it, Song: song, Version: version}, true
	})
	return detail, nil
}

// GetAllDefaultVersions returns, for every song whose default pointer targets
// a take that still exists, the song/take pair.
func (l *Library) GetAllDefaultVersions() []models.DefaultVersion {
	versions := lo.KeyBy(l.versions.Load(), func(v models.Version) string { return v.ID })

	return lo.FilterMap(l.GetAllSongs(), func(song models.Song, _ int) (models.DefaultVersion, bool) {
		if song.DefaultVersionID == "" {
			return models.DefaultVersion{}, false
		}
		version, ok := versions[song.DefaultVersionID]
		if !ok {
			return models.DefaultVersion{}, false
		}
		return models.DefaultVersion{Song: song, Version: version}, true
	})
}

// EnsureDefaultPlaylist returns the default playlist's id, creating it (and
// deriving its membership) on first access. Idempotent.
func (l *Library) EnsureDefaultPlaylist() (string, error) {
	id, created, err := l.ensureDefaultPlaylist()
	if err != nil {
		return "", err
	}
	if created {
		if err := l.SyncDefaultPlaylist(); err != nil {
			return "", err
		}
	}
	return id, nil
}

// ensureDefaultPlaylist finds or creates the default playlist without running
// the sync pass, so it is safe to call with syncMu held.
func (l *Library) ensureDefaultPlaylist() (id string, created bool, err error) {
	if existing, ok := lo.Find(l.getAllPlaylists(), func(p models.Playlist) bool { return p.IsDefault }); ok {
		return existing.ID, false, nil
	}

	id, err = l.CreatePlaylist(DefaultPlaylistName, true)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// SyncDefaultPlaylist re-derives the default playlist from the per-song
// default pointers: items whose take is no longer any song's representative
// are removed, and representatives not yet present are appended with order
// values continuing after the current item count. Running it twice with no
// intervening mutation changes nothing.
func (l *Library) SyncDefaultPlaylist() error {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()

	playlistID, _, err := l.ensureDefaultPlaylist()
	if err != nil {
		return err
	}

	currentItems := l.GetPlaylistItems(playlistID)
	currentIDs := lo.SliceToMap(currentItems, func(it models.PlaylistItem) (string, struct{}) {
		return it.VersionID, struct{}{}
	})

	defaults := l.GetAllDefaultVersions()
	targetIDs := lo.SliceToMap(defaults, func(dv models.DefaultVersion) (string, struct{}) {
		return dv.Version.ID, struct{}{}
	})

	for _, item := range currentItems {
		if _, ok := targetIDs[item.VersionID]; !ok {
			if err := l.RemoveFromPlaylist(playlistID, item.VersionID); err != nil {
				return err
			}
		}
	}

	toAdd := lo.Filter(defaults, func(dv models.DefaultVersion, _ int) bool {
		_, ok := currentIDs[dv.Version.ID]
		return !ok
	})
	for i, dv := range toAdd {
		// Ordering reflects insertion sequence, not any semantic ranking.
		if _, err := l.AddToPlaylist(playlistID, dv.Version.ID, len(currentItems)+i); err != nil {
			return err
		}
	}

	if len(currentItems) > 0 || len(toAdd) > 0 {
		l.logger.Debug("default playlist synced", "kept", len(currentItems), "added", len(toAdd))
	}
	return nil
}
