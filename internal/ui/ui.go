// Package ui implements the interactive terminal player.
//
// The model follows the Elm architecture: list views for songs, takes and
// playlists, plus a now-playing view over the playback session. The session
// is sampled on a short tick rather than pushed, matching the session's own
// polling model. Pressing back while the now-playing view is expanded
// minimizes the player instead of leaving the screen.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alsdbtjd0103/norae/internal/library"
	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/player"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/samber/lo"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	TakeListView
	PlaylistListView
	NowPlayingView
)

// Model represents the TUI application state.
type Model struct {
	view     ViewState
	lastView ViewState

	lib     *library.Library
	session *player.Session

	width  int
	height int

	songList     list.Model
	takeList     list.Model
	playlistList list.Model
	selectedSong *models.SongWithVersions

	playback player.State
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(lib *library.Library, session *player.Session) *Model {
	return &Model{
		view:    SongListView,
		lib:     lib,
		session: session,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the song list and starts the playback sampling tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSongs(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.songList, &m.takeList, &m.playlistList} {
			l.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case TakeListView:
			return m.handleTakeListKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case NowPlayingView:
			return m.handleNowPlayingKeys(msg)
		}

	case tickMsg:
		m.playback = m.session.Snapshot()
		return m, tick()

	case songsLoadedMsg:
		items := make([]list.Item, len(msg.songs))
		for i, song := range msg.songs {
			items[i] = songItem{song: song}
		}
		m.songList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.songList.Title = "Songs"
		return m, nil

	case takesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selectedSong = msg.detail
		items := make([]list.Item, len(msg.detail.Versions))
		for i, version := range msg.detail.Versions {
			items[i] = takeItem{version: version, isDefault: version.ID == msg.detail.DefaultVersionID}
		}
		m.takeList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.takeList.Title = fmt.Sprintf("Takes of '%s'", msg.detail.Title)
		m.view = TakeListView
		return m, nil

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl, count: msg.counts[pl.ID]}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.playlistList.Title = "Playlists"
		m.view = PlaylistListView
		return m, nil

	case playbackStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.playback = m.session.Snapshot()
		return m, nil
	}

	return m.updateLists(msg)
}

// handleGlobalKeys covers transport keys that work in every view.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.play):
		m.session.TogglePlayPause()
		return nil, true
	case key.Matches(msg, m.keys.next):
		if err := m.session.PlayNext(); err != nil {
			m.err = err
		}
		return nil, true
	case key.Matches(msg, m.keys.prev):
		if err := m.session.PlayPrevious(); err != nil {
			m.err = err
		}
		return nil, true
	case key.Matches(msg, m.keys.repeat):
		m.cycleRepeat()
		return nil, true
	case key.Matches(msg, m.keys.close):
		m.session.ClosePlayer()
		if m.view == NowPlayingView {
			m.view = m.lastView
		}
		return nil, true
	case key.Matches(msg, m.keys.expand):
		if m.playback.Track != nil && m.view != NowPlayingView {
			m.lastView = m.view
			m.session.ExpandPlayer()
			m.view = NowPlayingView
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		return m, m.loadPlaylists()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.loadTakes(item.song.ID)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleTakeListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.takeList.SelectedItem().(takeItem); ok && m.selectedSong != nil {
			track := player.Track{Song: m.selectedSong.Song, Version: item.version}
			return m, func() tea.Msg {
				return playbackStartedMsg{err: m.session.SetCurrentTrack(&track)}
			}
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab), key.Matches(msg, m.keys.back):
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.playPlaylist(item.playlist.ID)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		// Back minimizes the expanded player rather than exiting.
		m.session.MinimizePlayer()
		m.view = m.lastView
		return m, nil
	}
	return m, nil
}

func (m *Model) cycleRepeat() {
	if m.playback.Queue == nil {
		return
	}
	switch m.playback.Queue.Repeat {
	case player.RepeatNone:
		m.session.SetRepeatMode(player.RepeatOne)
	case player.RepeatOne:
		m.session.SetRepeatMode(player.RepeatAll)
	default:
		m.session.SetRepeatMode(player.RepeatNone)
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case TakeListView:
		m.takeList, cmd = m.takeList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSongs() tea.Cmd {
	return func() tea.Msg {
		return songsLoadedMsg{songs: m.lib.GetAllSongs()}
	}
}

func (m *Model) loadTakes(songID string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.lib.GetSongWithVersions(songID)
		return takesLoadedMsg{detail: detail, err: err}
	}
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.lib.GetPlaylists()
		if err != nil {
			return playlistsLoadedMsg{err: err}
		}
		counts := make(map[string]int, len(playlists))
		for _, pl := range playlists {
			counts[pl.ID] = len(m.lib.GetPlaylistItems(pl.ID))
		}
		return playlistsLoadedMsg{playlists: playlists, counts: counts}
	}
}

func (m *Model) playPlaylist(playlistID string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.lib.GetPlaylistWithDetails(playlistID)
		if err != nil {
			return playbackStartedMsg{err: err}
		}
		queue := lo.Map(detail.Items, func(item models.DetailedItem, _ int) player.Track {
			return player.Track{Song: item.Song, Version: item.Version}
		})
		return playbackStartedMsg{err: m.session.SetPlaylist(queue, 0)}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SongListView:
		body = m.songList.View()
	case TakeListView:
		body = m.takeList.View()
	case PlaylistListView:
		body = m.playlistList.View()
	case NowPlayingView:
		body = m.renderNowPlaying()
	}

	sections := []string{body}
	if m.err != nil {
		sections = append(sections, styles.err.Render(fmt.Sprintf("error: %v", m.err)))
	}
	if m.view != NowPlayingView {
		if mini := m.renderMiniPlayer(); mini != "" {
			sections = append(sections, mini)
		}
	}
	sections = append(sections, m.help.View(m.keys))
	return strings.Join(sections, "\n")
}

// renderMiniPlayer draws the one-line player shown below every list view.
func (m *Model) renderMiniPlayer() string {
	if m.playback.Track == nil {
		return ""
	}

	icon := "▶"
	if !m.playback.Playing {
		icon = "⏸"
	}
	line := fmt.Sprintf("%s %s — %s / %s", icon,
		m.playback.Track.Song.Title,
		shared.FormatClock(m.playback.Position),
		shared.FormatClock(m.playback.Duration))
	if m.playback.Queue != nil {
		line = fmt.Sprintf("%s  [%d/%d · repeat %s]", line,
			m.playback.Queue.Index+1, len(m.playback.Queue.Items), m.playback.Queue.Repeat)
	}
	return styles.accent.Render(line)
}

// renderNowPlaying draws the expanded player with a progress bar.
func (m *Model) renderNowPlaying() string {
	if m.playback.Track == nil {
		return styles.help.Render("nothing playing")
	}

	track := m.playback.Track
	var b strings.Builder
	b.WriteString(styles.title.Render("Now Playing") + "\n\n")
	b.WriteString(styles.ok.Render(track.Song.Title) + "\n")
	if track.Song.Artist != "" {
		b.WriteString(styles.help.Render(track.Song.Artist) + "\n")
	}
	b.WriteString(strings.Repeat("★", track.Version.Rating) + "\n\n")

	width := m.width - 8
	if width < 10 {
		width = 10
	}
	progress := 0.0
	if m.playback.Duration > 0 {
		progress = float64(m.playback.Position) / float64(m.playback.Duration)
	}
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	b.WriteString(styles.accent.Render(strings.Repeat("█", filled)+strings.Repeat("░", width-filled)) + "\n")
	b.WriteString(fmt.Sprintf("%s / %s\n", shared.FormatClock(m.playback.Position), shared.FormatClock(m.playback.Duration)))

	if m.playback.Queue != nil {
		b.WriteString(fmt.Sprintf("\ntrack %d of %d · repeat %s\n",
			m.playback.Queue.Index+1, len(m.playback.Queue.Items), m.playback.Queue.Repeat))
	}
	return b.String()
}
