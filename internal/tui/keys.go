package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Open     key.Binding
	Toggle   key.Binding
	Back     key.Binding
	Add      key.Binding
	Refresh  key.Binding
	Delete   key.Binding
	Remove   key.Binding
	Test     key.Binding
	TestAll  key.Binding
	Advanced key.Binding
	Confirm  key.Binding
	Save     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/h", "less")),
	Right:    key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/l", "more")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/edit")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add account")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Delete:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete account")),
	Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove device")),
	Test:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test device")),
	TestAll:  key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "test all")),
	Advanced: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "advanced")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
