package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	// Navigation
	Entries  key.Binding
	Invoices key.Binding
	Clients  key.Binding
	NextTab  key.Binding

	// Actions
	Select key.Binding
	New    key.Binding
	Edit   key.Binding
	Issue  key.Binding
	Pay    key.Binding
	Filter key.Binding
	Save   key.Binding

	// Movement
	Up   key.Binding
	Down key.Binding
}

// Screen navigation uses digits and capitals so that lowercase letters stay
// free for screen actions.
var DefaultKeyMap = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Entries:  key.NewBinding(key.WithKeys("1", "E"), key.WithHelp("1", "entries")),
	Invoices: key.NewBinding(key.WithKeys("2", "I"), key.WithHelp("2", "invoices")),
	Clients:  key.NewBinding(key.WithKeys("3", "C"), key.WithHelp("3", "clients")),
	NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next screen")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Issue:    key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter/i", "invoice")),
	Pay:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paid")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}
