package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit    key.Binding
	Back    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Profile key.Binding
	Logout  key.Binding
}

var Keys = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
	PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous tab")),
	Profile: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
	Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
}
