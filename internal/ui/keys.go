package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Login    key.Binding
	Logout   key.Binding
	Refresh  key.Binding
	Activity key.Binding
	Profile  key.Binding
}

var Keys = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Logout:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "logout")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh user")),
	Activity: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activity")),
	Profile:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
}
