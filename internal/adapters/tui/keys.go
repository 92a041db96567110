package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit  key.Binding
	Pause key.Binding
	Help  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause redraw")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Quit},
		{k.Help},
	}
}
