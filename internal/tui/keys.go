package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Back       key.Binding
	SendMax    key.Binding
	NextSource key.Binding
	Refresh    key.Binding
	More       key.Binding
	New        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Up:         key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "move")),
		Down:       key.NewBinding(key.WithKeys("down")),
		Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		SendMax:    key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "send max")),
		NextSource: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "switch account")),
		Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		More:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "load more")),
		New:        key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "new account")),
	}
}
