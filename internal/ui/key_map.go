package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	tab    key.Binding
	play   key.Binding
	next   key.Binding
	prev   key.Binding
	repeat key.Binding
	expand key.Binding
	close  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "songs/playlists")),
		play:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		repeat: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat mode")),
		expand: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "now playing")),
		close:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close player")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.expand, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.play, k.next, k.prev, k.repeat},
		{k.tab, k.expand, k.close, k.quit},
	}
}
