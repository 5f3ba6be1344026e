package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/alsdbtjd0103/norae/internal/storage"
	tu "github.com/alsdbtjd0103/norae/internal/testing"
	"github.com/samber/lo"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	store, _ := tu.NewTestStore(t)
	assets := storage.NewAssetStore(t.TempDir(), tu.QuietLogger())
	return New(store, assets, tu.QuietLogger())
}

// addTake creates a song take without going through the asset store.
func addTake(t *testing.T, lib *Library, songID string, rating int) string {
	t.Helper()

	versionID, err := lib.AddVersion(songID, "take.m4a", "/recordings/take.m4a", rating, 30, "")
	if err != nil {
		t.Fatalf("failed to add version: %v", err)
	}
	return versionID
}

func TestAddSong(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		lib := newTestLibrary(t)

		songID, err := lib.AddSong("My Way", "Frank Sinatra")
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if songID == "" {
			t.Fatal("expected a song id")
		}

		song, err := lib.GetSong(songID)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if song.Title != "My Way" || song.Artist != "Frank Sinatra" {
			t.Errorf("unexpected song: %+v", song)
		}
		if song.DefaultVersionID != "" {
			t.Error("new song should have no default version")
		}
	})

	t.Run("ArtistOptional", func(t *testing.T) {
		lib := newTestLibrary(t)

		songID, err := lib.AddSong("Untitled", "")
		if err != nil {
			t.Fatalf("failed to add song without artist: %v", err)
		}

		song, _ := lib.GetSong(songID)
		if song.Artist != "" {
			t.Errorf("expected empty artist, got %q", song.Artist)
		}
	})
}

func TestGetSong(t *testing.T) {
	lib := newTestLibrary(t)

	if _, err := lib.GetSong("missing"); !errors.Is(err, shared.ErrSongNotFound) {
		t.Errorf("expected ErrSongNotFound, got %v", err)
	}
}

func TestGetAllSongs(t *testing.T) {
	t.Run("EmptyStore", func(t *testing.T) {
		lib := newTestLibrary(t)

		if songs := lib.GetAllSongs(); len(songs) != 0 {
			t.Errorf("expected no songs, got %d", len(songs))
		}
	})

	t.Run("RecentlyPracticedFirst", func(t *testing.T) {
		lib := newTestLibrary(t)

		first, _ := lib.AddSong("First", "")
		second, _ := lib.AddSong("Second", "")

		// Recording a take bumps the song's UpdatedAt.
		time.Sleep(2 * time.Millisecond)
		addTake(t, lib, first, 3)

		songs := lib.GetAllSongs()
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[0].ID != first || songs[1].ID != second {
			t.Errorf("expected %s before %s, got %+v", first, second, songs)
		}
	})
}

func TestGetSongWithVersions(t *testing.T) {
	t.Run("NewestFirst", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")

		older := addTake(t, lib, songID, 2)
		time.Sleep(2 * time.Millisecond)
		newer := addTake(t, lib, songID, 4)

		detail, err := lib.GetSongWithVersions(songID)
		if err != nil {
			t.Fatalf("failed to get detail: %v", err)
		}
		if len(detail.Versions) != 2 {
			t.Fatalf("expected 2 versions, got %d", len(detail.Versions))
		}
		if detail.Versions[0].ID != newer || detail.Versions[1].ID != older {
			t.Error("versions should be sorted newest first")
		}
		if detail.LatestVersion == nil || detail.LatestVersion.ID != newer {
			t.Error("latest version should be the newest take")
		}
	})

	t.Run("ResolvesDefault", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 5)

		if err := lib.UpdateSongDefaultVersion(songID, versionID); err != nil {
			t.Fatalf("failed to set default: %v", err)
		}

		detail, _ := lib.GetSongWithVersions(songID)
		if detail.DefaultVersion == nil || detail.DefaultVersion.ID != versionID {
			t.Error("default version should be resolved")
		}
	})

	t.Run("NoTakes", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")

		detail, err := lib.GetSongWithVersions(songID)
		if err != nil {
			t.Fatalf("failed to get detail: %v", err)
		}
		if detail.LatestVersion != nil || detail.DefaultVersion != nil {
			t.Error("song without takes should resolve no versions")
		}
	})
}

func TestUpdateSongDefaultVersion(t *testing.T) {
	t.Run("SetSyncsDefaultPlaylist", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 4)

		if err := lib.UpdateSongDefaultVersion(songID, versionID); err != nil {
			t.Fatalf("failed to set default: %v", err)
		}

		playlistID, err := lib.EnsureDefaultPlaylist()
		if err != nil {
			t.Fatalf("failed to ensure default playlist: %v", err)
		}

		items := lib.GetPlaylistItems(playlistID)
		if len(items) != 1 || items[0].VersionID != versionID {
			t.Errorf("default playlist should contain the take, got %+v", items)
		}
	})

	t.Run("ClearSyncsDefaultPlaylist", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 4)
		lib.UpdateSongDefaultVersion(songID, versionID)

		if err := lib.UpdateSongDefaultVersion(songID, ""); err != nil {
			t.Fatalf("failed to clear default: %v", err)
		}

		playlistID, _ := lib.EnsureDefaultPlaylist()
		if items := lib.GetPlaylistItems(playlistID); len(items) != 0 {
			t.Errorf("cleared take should leave the default playlist, got %+v", items)
		}
	})

	t.Run("UnknownSong", func(t *testing.T) {
		lib := newTestLibrary(t)

		if err := lib.UpdateSongDefaultVersion("missing", "v1"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})
}

func TestDeleteSong(t *testing.T) {
	t.Run("Cascades", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Doomed", "")
		v1 := addTake(t, lib, songID, 3)
		v2 := addTake(t, lib, songID, 4)
		lib.UpdateSongDefaultVersion(songID, v1)

		playlistID, _ := lib.CreatePlaylist("Practice", false)
		lib.AddToPlaylist(playlistID, v2, 0)

		if err := lib.DeleteSong(songID); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		if _, err := lib.GetSong(songID); !errors.Is(err, shared.ErrSongNotFound) {
			t.Error("song should be gone")
		}
		if _, err := lib.GetVersion(v1); !errors.Is(err, shared.ErrVersionNotFound) {
			t.Error("takes should be gone")
		}
		if items := lib.GetPlaylistItems(playlistID); len(items) != 0 {
			t.Errorf("playlist items should be scrubbed, got %+v", items)
		}

		defaultID, _ := lib.EnsureDefaultPlaylist()
		if items := lib.GetPlaylistItems(defaultID); len(items) != 0 {
			t.Errorf("default playlist should be scrubbed, got %+v", items)
		}
	})

	t.Run("LeavesOtherSongs", func(t *testing.T) {
		lib := newTestLibrary(t)
		doomed, _ := lib.AddSong("Doomed", "")
		kept, _ := lib.AddSong("Kept", "")
		keptTake := addTake(t, lib, kept, 5)

		if err := lib.DeleteSong(doomed); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		if _, err := lib.GetSong(kept); err != nil {
			t.Errorf("unrelated song should survive: %v", err)
		}
		if _, err := lib.GetVersion(keptTake); err != nil {
			t.Errorf("unrelated take should survive: %v", err)
		}
	})
}

func TestAddVersion(t *testing.T) {
	t.Run("RejectsBadRating", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")

		for _, rating := range []int{0, 6, -1} {
			if _, err := lib.AddVersion(songID, "f.m4a", "/f.m4a", rating, 10, ""); err == nil {
				t.Errorf("rating %d should be rejected", rating)
			}
		}
	})

	t.Run("BumpsSongUpdatedAt", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		before, _ := lib.GetSong(songID)

		time.Sleep(2 * time.Millisecond)
		addTake(t, lib, songID, 3)

		after, _ := lib.GetSong(songID)
		if !after.UpdatedAt.After(before.UpdatedAt) {
			t.Error("recording a take should bump the song's UpdatedAt")
		}
	})

	t.Run("NotDefaultAutomatically", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		addTake(t, lib, songID, 5)

		song, _ := lib.GetSong(songID)
		if song.DefaultVersionID != "" {
			t.Error("adding a take should not make it the default")
		}
	})
}

func TestAddRecordedVersion(t *testing.T) {
	t.Run("CopiesAsset", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")

		src := filepath.Join(t.TempDir(), "raw.wav")
		if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
			t.Fatalf("failed to write source: %v", err)
		}

		versionID, err := lib.AddRecordedVersion(songID, src, 4, 12.5, "first try")
		if err != nil {
			t.Fatalf("failed to add recorded version: %v", err)
		}

		version, err := lib.GetVersion(versionID)
		if err != nil {
			t.Fatalf("failed to get version: %v", err)
		}
		if _, err := os.Stat(version.StorageURL); err != nil {
			t.Errorf("stored asset should exist at %s: %v", version.StorageURL, err)
		}
		if version.Memo != "first try" || version.Duration != 12.5 {
			t.Errorf("unexpected version: %+v", version)
		}
	})

	t.Run("RollsBackAssetOnFailure", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")

		src := filepath.Join(t.TempDir(), "raw.wav")
		if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
			t.Fatalf("failed to write source: %v", err)
		}

		// Invalid rating makes the record write fail after the copy.
		if _, err := lib.AddRecordedVersion(songID, src, 0, 10, ""); err == nil {
			t.Fatal("expected validation error")
		}

		dir := filepath.Join(lib.assets.BaseDir(), songID)
		if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
			t.Errorf("orphaned asset left behind: %v", entries)
		}
	})
}

func TestUpdateVersion(t *testing.T) {
	t.Run("RatingOnly", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID, _ := lib.AddVersion(songID, "f.m4a", "/f.m4a", 2, 10, "keep me")

		if err := lib.UpdateVersion(versionID, VersionUpdate{Rating: lo.ToPtr(5)}); err != nil {
			t.Fatalf("failed to update rating: %v", err)
		}

		version, _ := lib.GetVersion(versionID)
		if version.Rating != 5 {
			t.Errorf("expected rating 5, got %d", version.Rating)
		}
		if version.Memo != "keep me" {
			t.Errorf("memo should be untouched, got %q", version.Memo)
		}
	})

	t.Run("MemoOnly", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 3)

		if err := lib.UpdateVersion(versionID, VersionUpdate{Memo: lo.ToPtr("pitchy bridge")}); err != nil {
			t.Fatalf("failed to update memo: %v", err)
		}

		version, _ := lib.GetVersion(versionID)
		if version.Memo != "pitchy bridge" || version.Rating != 3 {
			t.Errorf("unexpected version after update: %+v", version)
		}
	})

	t.Run("RejectsBadRating", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 3)

		if err := lib.UpdateVersion(versionID, VersionUpdate{Rating: lo.ToPtr(9)}); err == nil {
			t.Fatal("expected validation error")
		}

		version, _ := lib.GetVersion(versionID)
		if version.Rating != 3 {
			t.Errorf("failed update should not change the record, got rating %d", version.Rating)
		}
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		lib := newTestLibrary(t)

		err := lib.UpdateVersion("missing", VersionUpdate{Rating: lo.ToPtr(4)})
		if !errors.Is(err, shared.ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})
}

func TestDeleteVersion(t *testing.T) {
	t.Run("ScrubsPlaylists", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 3)

		p1, _ := lib.CreatePlaylist("One", false)
		p2, _ := lib.CreatePlaylist("Two", false)
		lib.AddToPlaylist(p1, versionID, 0)
		lib.AddToPlaylist(p2, versionID, 0)

		if err := lib.DeleteVersion(versionID); err != nil {
			t.Fatalf("failed to delete version: %v", err)
		}

		if items := lib.GetPlaylistItems(p1); len(items) != 0 {
			t.Errorf("playlist one should be scrubbed, got %+v", items)
		}
		if items := lib.GetPlaylistItems(p2); len(items) != 0 {
			t.Errorf("playlist two should be scrubbed, got %+v", items)
		}
	})

	t.Run("ClearsDefaultPointer", func(t *testing.T) {
		lib := newTestLibrary(t)
		songID, _ := lib.AddSong("Song", "")
		versionID := addTake(t, lib, songID, 5)
		lib.UpdateSongDefaultVersion(songID, versionID)

		if err := lib.DeleteVersion(versionID); err != nil {
			t.Fatalf("failed to delete version: %v", err)
		}

		song, _ := lib.GetSong(songID)
		if song.DefaultVersionID != "" {
			t.Errorf("default pointer should be cleared, got %q", song.DefaultVersionID)
		}

		playlistID, _ := lib.EnsureDefaultPlaylist()
		if items := lib.GetPlaylistItems(playlistID); len(items) != 0 {
			t.Errorf("default playlist should no longer hold the take, got %+v", items)
		}
	})

	t.Run("LeavesOtherSongsPointers", func(t *testing.T) {
		lib := newTestLibrary(t)
		songA, _ := lib.AddSong("A", "")
		songB, _ := lib.AddSong("B", "")
		takeA := addTake(t, lib, songA, 4)
		takeB := addTake(t, lib, songB, 4)
		lib.UpdateSongDefaultVersion(songA, takeA)
		lib.UpdateSongDefaultVersion(songB, takeB)

		if err := lib.DeleteVersion(takeA); err != nil {
			t.Fatalf("failed to delete version: %v", err)
		}

		b, _ := lib.GetSong(songB)
		if b.DefaultVersionID != takeB {
			t.Error("unrelated song's default pointer should survive")
		}

		playlistID, _ := lib.EnsureDefaultPlaylist()
		items := lib.GetPlaylistItems(playlistID)
		if len(items) != 1 || items[0].VersionID != takeB {
			t.Errorf("default playlist should keep the other take, got %+v", items)
		}
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		lib := newTestLibrary(t)

		if err := lib.DeleteVersion("missing"); !errors.Is(err, shared.ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})
}
