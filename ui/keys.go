package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	NextPage  key.Binding
	PrevPage  key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Speak     key.Binding
	Stop      key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var keys = keyMap{
	NextPage:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous page")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Speak:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "speak")),
	Stop:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

// helpKeys combines the global bindings with those of the active page.
type helpKeys struct {
	page []key.Binding
}

func (h helpKeys) ShortHelp() []key.Binding {
	return append(append([]key.Binding{}, h.page...), keys.Stop, keys.NextPage, keys.Help, keys.Quit)
}

func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		h.page,
		{keys.Stop, keys.Copy},
		{keys.NextPage, keys.PrevPage},
		{keys.Help, keys.Quit},
	}
}
