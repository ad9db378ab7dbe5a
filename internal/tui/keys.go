package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Open    key.Binding
	Back    key.Binding
	Approve key.Binding
	Reject  key.Binding
	Refresh key.Binding
	Submit  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Next:    key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next page")),
	Prev:    key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "prev page")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Approve: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
	Reject:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject")),
	Refresh: key.NewBinding(key.WithKeys("ctrl+r", "r"), key.WithHelp("r", "refresh")),
	Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// helpKeys adapts the bindings shown for the current mode to help.KeyMap.
type helpKeys struct {
	short []key.Binding
}

func (h helpKeys) ShortHelp() []key.Binding  { return h.short }
func (h helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{h.short} }
