package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings for the dashboard.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit     key.Binding
	SpanUp   key.Binding
	SpanDown key.Binding
	Node     key.Binding
	CPU      key.Binding
	Memory   key.Binding
	Storage  key.Binding
	Collapse key.Binding
	Help     key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.SpanUp, k.SpanDown, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CPU, k.Memory, k.Storage, k.Node, k.Collapse},
		{k.SpanUp, k.SpanDown},
		{k.Help, k.Quit},
	}
}

// keys holds the default key bindings used by the dashboard.
var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	SpanUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "smoother")),
	SpanDown: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "sharper")),
	CPU:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "cpu")),
	Memory:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "memory")),
	Storage:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "storage")),
	Node:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "node")),
	Collapse: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "all panels")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// KeyBindings returns every dashboard binding in help order.
func KeyBindings() []key.Binding {
	var out []key.Binding
	for _, group := range keys.FullHelp() {
		out = append(out, group...)
	}
	return out
}
