package tui

import (
	"strings"

	"eatsdash/internal/models"
	"eatsdash/internal/settings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field int

const (
	fieldPrefix field = iota
	fieldLanguage
	fieldOptions
)

// editTarget names one debounced text field. Device is empty for the
// account-wide document.
type editTarget struct {
	Field  field
	Device string
}

func (t editTarget) key() string {
	switch t.Field {
	case fieldLanguage:
		return settings.LanguageKey(t.Device)
	case fieldOptions:
		return settings.OptionsKey(t.Device)
	}
	return settings.PrefixKey()
}

// text is what the editor shows for t before any typing.
func (t editTarget) text(s models.NotificationSettings, toggles *settings.Toggles) string {
	switch t.Field {
	case fieldLanguage:
		if t.Device == "" {
			return s.Language
		}
		return toggles.LanguageText(s, t.Device)
	case fieldOptions:
		if t.Device == "" {
			return settings.FormatOptions(s.Options)
		}
		return toggles.OptionsText(s, t.Device)
	}
	return s.MessagePrefix
}

// apply writes value into a new document.
func (t editTarget) apply(s models.NotificationSettings, value string) models.NotificationSettings {
	switch t.Field {
	case fieldLanguage:
		value = strings.TrimSpace(value)
		if t.Device == "" {
			return settings.Write(s, func(n *models.NotificationSettings) { n.Language = value })
		}
		return settings.SetDeviceLanguage(s, t.Device, value)
	case fieldOptions:
		opts := settings.ParseOptions(value)
		if t.Device == "" {
			return settings.Write(s, func(n *models.NotificationSettings) { n.Options = opts })
		}
		return settings.SetDeviceOptions(s, t.Device, opts)
	}
	return settings.Write(s, func(n *models.NotificationSettings) { n.MessagePrefix = value })
}

// same reports whether value would store what is already stored.
func (t editTarget) same(s models.NotificationSettings, toggles *settings.Toggles, value string) bool {
	current := t.text(s, toggles)
	if t.Field == fieldOptions {
		return settings.FormatOptions(settings.ParseOptions(value)) == current
	}
	return strings.TrimSpace(value) == strings.TrimSpace(current)
}

type editor struct {
	target    editTarget
	active    bool
	multiline bool
	input     textinput.Model
	area      textarea.Model
}

func newEditor() editor {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	ta := textarea.New()
	ta.Placeholder = "key: value"
	ta.ShowLineNumbers = false
	ta.SetWidth(44)
	ta.SetHeight(5)
	ta.Cursor.SetMode(cursor.CursorStatic)

	return editor{input: ti, area: ta}
}

func (e *editor) open(t editTarget, value string) {
	e.target = t
	e.active = true
	e.multiline = t.Field == fieldOptions
	if e.multiline {
		e.area.SetValue(value)
		e.area.Focus()
		return
	}
	e.input.Placeholder = placeholderFor(t.Field)
	e.input.SetValue(value)
	e.input.CursorEnd()
	e.input.Focus()
}

func placeholderFor(f field) string {
	if f == fieldLanguage {
		return "e.g. en-US"
	}
	return settings.DefaultMessagePrefix
}

func (e *editor) close() {
	e.active = false
	e.input.Blur()
	e.area.Blur()
}

func (e *editor) value() string {
	if e.multiline {
		return e.area.Value()
	}
	return e.input.Value()
}

// update feeds a key to the focused input and reports whether the text
// changed.
func (e *editor) update(msg tea.KeyMsg) bool {
	before := e.value()
	if e.multiline {
		e.area, _ = e.area.Update(msg)
	} else {
		e.input, _ = e.input.Update(msg)
	}
	return e.value() != before
}

func (e editor) view() string {
	if e.multiline {
		return focusedInputStyle.Render(e.area.View()) + "\n" +
			mutedStyle.Render("ctrl+s or esc to finish")
	}
	return focusedInputStyle.Render(e.input.View())
}
