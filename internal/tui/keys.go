package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add     key.Binding
	Delete  key.Binding
	Missing key.Binding
	Refresh key.Binding
	Quit    key.Binding

	// Interrupt quits from anywhere, including the add form.
	Interrupt key.Binding

	Submit key.Binding
	Switch key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Missing: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "missing priorities")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Interrupt: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),

		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add todo")),
		Switch: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch field")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) listKeys() []key.Binding {
	return []key.Binding{k.Add, k.Delete, k.Missing, k.Refresh}
}

func (k keyMap) formKeys() []key.Binding {
	return []key.Binding{k.Submit, k.Switch, k.Cancel}
}
