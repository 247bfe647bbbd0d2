package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Reset    key.Binding
	HoldUp   key.Binding
	HoldDown key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset stats"),
		),
		HoldUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "max hold +10ms"),
		),
		HoldDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "max hold -10ms"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reset, k.HoldUp, k.HoldDown, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
