package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alsdbtjd0103/norae/internal/models"
)

// tickMsg drives the now-playing refresh; the session is sampled, not pushed.
type tickMsg time.Time

// songsLoadedMsg carries the refreshed song list.
type songsLoadedMsg struct {
	songs []models.Song
}

// takesLoadedMsg carries the takes of the selected song.
type takesLoadedMsg struct {
	detail *models.SongWithVersions
	err    error
}

// playlistsLoadedMsg carries the playlists with their item counts.
type playlistsLoadedMsg struct {
	playlists []models.Playlist
	counts    map[string]int
	err       error
}

// playbackStartedMsg reports the outcome of handing a queue to the session.
type playbackStartedMsg struct {
	err error
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
