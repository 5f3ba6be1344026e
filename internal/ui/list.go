package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
)

var (
	_ list.Item = songItem{}
	_ list.Item = takeItem{}
	_ list.Item = playlistItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := "unknown artist"
	if i.song.Artist != "" {
		desc = i.song.Artist
	}
	if i.song.DefaultVersionID != "" {
		desc = fmt.Sprintf("%s • ★ default set", desc)
	}
	return desc
}

// takeItem wraps [models.Version] to implement [list.Item].
type takeItem struct {
	version   models.Version
	isDefault bool
}

func (i takeItem) FilterValue() string { return i.version.FileName }
func (i takeItem) Title() string {
	title := i.version.RecordedAt.Format("2006-01-02 15:04")
	if i.isDefault {
		title = fmt.Sprintf("%s (default)", title)
	}
	return title
}

func (i takeItem) Description() string {
	stars := strings.Repeat("★", i.version.Rating)
	desc := stars
	if i.version.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", stars, shared.FormatClock(time.Duration(i.version.Duration*float64(time.Second))))
	}
	if i.version.Memo != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.version.Memo)
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	count    int
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.playlist.IsDefault {
		return fmt.Sprintf("%s ♪", i.playlist.Name)
	}
	return i.playlist.Name
}

func (i playlistItem) Description() string {
	return fmt.Sprintf("%d takes", i.count)
}
