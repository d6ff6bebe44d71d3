package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the review TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	toggle   key.Binding
	all      key.Binding
	none     key.Binding
	enter    key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	showHelp key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		all:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "keep all")),
		none:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "drop all")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		showHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp implement [help.KeyMap] for the review view.

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.all, k.none, k.enter, k.showHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.all, k.none, k.enter},
		{k.showHelp, k.quit},
	}
}
