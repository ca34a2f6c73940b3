package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Diags      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous finding"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next finding"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup", "K"),
		key.WithHelp("PgUp/K", "scroll detail up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown", "J"),
		key.WithHelp("PgDn/J", "scroll detail down"),
	),
	Diags: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "toggle diagnostics"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
