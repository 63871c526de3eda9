package settings

import (
	"strings"

	"eatsdash/internal/models"
)

// Toggles holds the per-device UI bits that are not persisted: whether the
// language and options editors were switched on, and which device cards are
// expanded. Stored empty values and never-set values look the same on the
// wire, so these bits are what keeps a freshly enabled, still blank editor
// open. The zero value is ready to use.
type Toggles struct {
	language map[string]bool
	options  map[string]bool
	expanded map[string]bool
}

func NewToggles() *Toggles {
	return &Toggles{}
}

func (t *Toggles) set(m *map[string]bool, device string, on bool) {
	if *m == nil {
		*m = make(map[string]bool)
	}
	if on {
		(*m)[device] = true
	} else {
		delete(*m, device)
	}
}

// LanguageEnabled is true when a language is stored or the editor was
// switched on in this session.
func (t *Toggles) LanguageEnabled(s models.NotificationSettings, device string) bool {
	return storedLanguage(s, device) != "" || t.language[device]
}

func (t *Toggles) OptionsEnabled(s models.NotificationSettings, device string) bool {
	return len(storedOptions(s, device)) > 0 || t.options[device]
}

// ToggleLanguage moves the device's language editor through
// absent -> editing -> persisted. Switching on only flips the UI bit.
// Switching off persists an explicit empty language; persist reports whether
// next must be saved.
func (t *Toggles) ToggleLanguage(s models.NotificationSettings, device string) (next models.NotificationSettings, persist bool) {
	if !t.LanguageEnabled(s, device) {
		t.set(&t.language, device, true)
		return s, false
	}
	t.set(&t.language, device, false)
	return SetDeviceLanguage(s, device, ""), true
}

// ToggleOptions behaves like ToggleLanguage for the options map.
func (t *Toggles) ToggleOptions(s models.NotificationSettings, device string) (next models.NotificationSettings, persist bool) {
	if !t.OptionsEnabled(s, device) {
		t.set(&t.options, device, true)
		return s, false
	}
	t.set(&t.options, device, false)
	return SetDeviceOptions(s, device, map[string]any{}), true
}

// Resolve is the effective configuration as the editors see it: while an
// editor is switched on its stored value is used even when blank, instead of
// quietly inheriting the global one.
func (t *Toggles) Resolve(s models.NotificationSettings, device string) Resolved {
	r := Resolve(s, device)
	if t.language[device] {
		r.Language = storedLanguage(s, device)
	}
	if t.options[device] {
		r.Options = storedOptions(s, device)
		if r.Options == nil {
			r.Options = map[string]any{}
		}
	}
	return r
}

// LanguageText is the editor contents for device's language.
func (t *Toggles) LanguageText(s models.NotificationSettings, device string) string {
	return storedLanguage(s, device)
}

// OptionsText is the editor contents for device's options.
func (t *Toggles) OptionsText(s models.NotificationSettings, device string) string {
	return FormatOptions(storedOptions(s, device))
}

func (t *Toggles) Expanded(device string) bool {
	return t.expanded[device]
}

func (t *Toggles) ToggleExpanded(device string) bool {
	on := !t.expanded[device]
	t.set(&t.expanded, device, on)
	return on
}

// Forget drops every bit held for device.
func (t *Toggles) Forget(device string) {
	delete(t.language, device)
	delete(t.options, device)
	delete(t.expanded, device)
}

func (t *Toggles) Reset() {
	t.language = nil
	t.options = nil
	t.expanded = nil
}

func storedLanguage(s models.NotificationSettings, device string) string {
	o, ok := s.DeviceOverrides[device]
	if !ok || o.Language == nil {
		return ""
	}
	return strings.TrimSpace(*o.Language)
}

func storedOptions(s models.NotificationSettings, device string) map[string]any {
	o, ok := s.DeviceOverrides[device]
	if !ok {
		return nil
	}
	return o.Options
}
