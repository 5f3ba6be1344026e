// submodule actions implements the command handlers
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/alsdbtjd0103/norae/internal/formatter"
	"github.com/alsdbtjd0103/norae/internal/library"
	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/player"
	"github.com/alsdbtjd0103/norae/internal/recorder"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/samber/lo"
)

// Setup initializes the config file, database and migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}
	if loaded, err := shared.LoadConfig(configPath); err == nil {
		r.config = loaded
	}

	if _, err := r.openLibrary(); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SongAdd registers a new song in the practice library.
func (r *Runner) SongAdd(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.String("title"))
	if title == "" {
		return fmt.Errorf("%w: song title", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	songID, err := lib.AddSong(title, strings.TrimSpace(cmd.String("artist")))
	if err != nil {
		return err
	}
	r.printf("added song %s (%s)\n", title, songID)
	return nil
}

// SongList prints all songs, most recently practiced first.
func (r *Runner) SongList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	songs := lib.GetAllSongs()
	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	for _, song := range songs {
		marker := " "
		if song.DefaultVersionID != "" {
			marker = "★"
		}
		artist := song.Artist
		if artist == "" {
			artist = "-"
		}
		r.printf("%s %-20s  %-16s  %s\n", marker, song.Title, artist, song.ID)
	}
	return nil
}

// SongShow prints a song with its takes, newest first.
func (r *Runner) SongShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	detail, err := lib.GetSongWithVersions(cmd.String("id"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	r.printf("%s", detail.Title)
	if detail.Artist != "" {
		r.printf(" — %s", detail.Artist)
	}
	r.printf("\n")
	for _, v := range detail.Versions {
		marker := " "
		if v.ID == detail.DefaultVersionID {
			marker = "★"
		}
		r.printf("%s %s  %s  %d/5  %s\n", marker, v.ID, v.RecordedAt.Format("2006-01-02 15:04"), v.Rating, v.Memo)
	}
	return nil
}

// SongDelete removes a song and every take it owns.
func (r *Runner) SongDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	songID := cmd.String("id")
	if err := lib.DeleteSong(songID); err != nil {
		return err
	}
	r.printf("deleted song %s\n", songID)
	return nil
}

// TakeAdd imports an existing audio file as a take.
func (r *Runner) TakeAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	take, err := recorder.ImportTake(cmd.String("file"), seconds(cmd.Float64("duration")))
	if err != nil {
		return err
	}

	versionID, err := lib.AddRecordedVersion(
		cmd.String("song"), take.Path, int(cmd.Int("rating")), take.Duration.Seconds(), cmd.String("memo"))
	if err != nil {
		return err
	}
	r.printf("added take %s\n", versionID)
	return nil
}

// TakeRecord captures a new take with the configured recorder, stopping on Enter.
func (r *Runner) TakeRecord(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	if status := r.rec.RequestPermission(); status != recorder.PermissionGranted {
		// Not an exception: guide the user instead of failing loudly.
		r.printf("recording unavailable (%s); configure [recorder] command in config.toml\n", status)
		return fmt.Errorf("%w", shared.ErrRecorderUnavailable)
	}

	if err := r.rec.Start(ctx); err != nil {
		return err
	}
	r.printf("recording... press Enter to stop\n")
	bufio.NewReader(r.input).ReadString('\n')

	take, err := r.rec.Stop()
	if err != nil {
		return err
	}
	defer os.Remove(take.Path)

	versionID, err := lib.AddRecordedVersion(
		cmd.String("song"), take.Path, int(cmd.Int("rating")), take.Duration.Seconds(), cmd.String("memo"))
	if err != nil {
		return err
	}
	r.printf("recorded take %s (%s)\n", versionID, shared.FormatClock(take.Duration))
	return nil
}

// TakeList prints a song's takes, newest first.
func (r *Runner) TakeList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	versions := lib.GetVersionsBySong(cmd.String("song"))
	if cmd.Bool("json") {
		return r.writeJSON(versions, cmd.Bool("pretty"))
	}
	for _, v := range versions {
		r.printf("%s  %s  %d/5  %s\n", v.ID, v.RecordedAt.Format("2006-01-02 15:04"), v.Rating, v.Memo)
	}
	return nil
}

// TakeRate updates a take's rating and/or memo.
func (r *Runner) TakeRate(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	updates := library.VersionUpdate{}
	if cmd.IsSet("rating") {
		updates.Rating = lo.ToPtr(int(cmd.Int("rating")))
	}
	if cmd.IsSet("memo") {
		updates.Memo = lo.ToPtr(cmd.String("memo"))
	}
	if updates.Rating == nil && updates.Memo == nil {
		return fmt.Errorf("%w: --rating or --memo", shared.ErrMissingArgument)
	}

	if err := lib.UpdateVersion(cmd.String("id"), updates); err != nil {
		return err
	}
	r.printf("updated take %s\n", cmd.String("id"))
	return nil
}

// TakeDelete removes a take, its playlist items and its audio file.
func (r *Runner) TakeDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	versionID := cmd.String("id")
	if err := lib.DeleteVersion(versionID); err != nil {
		return err
	}
	r.printf("deleted take %s\n", versionID)
	return nil
}

// DefaultSet designates a take as its song's representative version.
func (r *Runner) DefaultSet(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	if err := lib.UpdateSongDefaultVersion(cmd.String("song"), cmd.String("version")); err != nil {
		return err
	}
	r.printf("default version updated; favorites playlist synced\n")
	return nil
}

// DefaultClear removes a song's representative designation.
func (r *Runner) DefaultClear(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	if err := lib.UpdateSongDefaultVersion(cmd.String("song"), ""); err != nil {
		return err
	}
	r.printf("default version cleared; favorites playlist synced\n")
	return nil
}

// PlaylistCreate creates a user playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.String("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	playlistID, err := lib.CreatePlaylist(name, false)
	if err != nil {
		return err
	}
	r.printf("created playlist %s (%s)\n", name, playlistID)
	return nil
}

// PlaylistList prints all playlists, the default one first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	playlists, err := lib.GetPlaylists()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	for _, pl := range playlists {
		marker := " "
		if pl.IsDefault {
			marker = "♪"
		}
		r.printf("%s %-20s  %d takes  %s\n", marker, pl.Name, len(lib.GetPlaylistItems(pl.ID)), pl.ID)
	}
	return nil
}

// PlaylistShow prints a playlist with items joined to songs and takes.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	detail, err := lib.GetPlaylistWithDetails(cmd.String("id"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}

	r.printf("%s (%d takes)\n", detail.Name, len(detail.Items))
	for i, item := range detail.Items {
		r.printf("%2d. %s — %d/5 (%s)\n", i+1, item.Song.Title, item.Version.Rating, item.Version.ID)
	}
	return nil
}

// PlaylistAdd appends a take to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	playlistID := cmd.String("id")
	order := int(cmd.Int("order"))
	if !cmd.IsSet("order") {
		order = len(lib.GetPlaylistItems(playlistID))
	}

	itemID, err := lib.AddToPlaylist(playlistID, cmd.String("version"), order)
	if err != nil {
		return err
	}
	r.printf("added item %s\n", itemID)
	return nil
}

// PlaylistRemove removes a take from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	if err := lib.RemoveFromPlaylist(cmd.String("id"), cmd.String("version")); err != nil {
		return err
	}
	r.printf("removed take from playlist\n")
	return nil
}

// PlaylistDelete removes a playlist and its items. The default playlist is protected.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	playlistID := cmd.String("id")
	if err := lib.DeletePlaylist(playlistID); err != nil {
		if errors.Is(err, shared.ErrDefaultPlaylistProtected) {
			r.printf("the favorites playlist cannot be deleted\n")
		}
		return err
	}
	r.printf("deleted playlist %s\n", playlistID)
	return nil
}

// PlaylistSync re-derives the favorites playlist from default-version pointers.
func (r *Runner) PlaylistSync(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	if err := lib.SyncDefaultPlaylist(); err != nil {
		return err
	}
	r.printf("favorites playlist synced\n")
	return nil
}

// PlaylistExport writes a playlist in csv, md or txt format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	detail, err := lib.GetPlaylistWithDetails(cmd.String("id"))
	if err != nil {
		return err
	}

	var data []byte
	switch format := cmd.String("format"); format {
	case "csv":
		data, err = formatter.ExportToCSV(detail)
	case "md":
		data, err = formatter.ExportToMarkdown(detail)
	case "txt":
		data, err = formatter.ExportToText(detail)
	default:
		return fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.printf("exported to %s\n", output)
		return nil
	}
	r.printf("%s", data)
	return nil
}

// PlayTake plays a single take until it finishes or the context is cancelled.
func (r *Runner) PlayTake(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}
	session, err := r.openSession()
	if err != nil {
		return err
	}

	version, err := lib.GetVersion(cmd.String("id"))
	if err != nil {
		return err
	}
	song, err := lib.GetSong(version.SongID)
	if err != nil {
		return err
	}

	track := player.Track{Song: *song, Version: *version}
	if err := session.SetCurrentTrack(&track); err != nil {
		return err
	}
	r.printf("playing %s\n", song.Title)
	return r.waitForPlayback(ctx, session)
}

// PlayPlaylist plays a whole playlist with the requested repeat mode.
func (r *Runner) PlayPlaylist(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}
	session, err := r.openSession()
	if err != nil {
		return err
	}

	detail, err := lib.GetPlaylistWithDetails(cmd.String("id"))
	if err != nil {
		return err
	}
	queue := lo.Map(detail.Items, func(item models.DetailedItem, _ int) player.Track {
		return player.Track{Song: item.Song, Version: item.Version}
	})

	if err := session.SetPlaylist(queue, int(cmd.Int("start"))); err != nil {
		return err
	}
	if cmd.IsSet("repeat") {
		mode, err := player.ParseRepeatMode(cmd.String("repeat"))
		if err != nil {
			return err
		}
		session.SetRepeatMode(mode)
	}

	r.printf("playing %s (%d takes)\n", detail.Name, len(queue))
	return r.waitForPlayback(ctx, session)
}

// waitForPlayback blocks until the session stops playing or ctx is cancelled.
func (r *Runner) waitForPlayback(ctx context.Context, session *player.Session) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			session.ClosePlayer()
			return nil
		case <-ticker.C:
			state := session.Snapshot()
			if state.Track == nil || !state.Playing {
				return nil
			}
		}
	}
}
