package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views match against
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Tab    key.Binding
	Save   key.Binding
	Help   key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Toggle key.Binding

	Search         key.Binding
	Category       key.Binding
	Priority       key.Binding
	ResetFilters   key.Binding
	ClearCompleted key.Binding

	Login   key.Binding
	Account key.Binding
	Logout  key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		New: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Category: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "category"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		ResetFilters: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset filters"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear done"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign in"),
		),
		Account: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "account"),
		),
		Logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}
