package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"eatsdash/internal/models"
	"eatsdash/internal/panel"
	"eatsdash/internal/settings"
	"eatsdash/internal/status"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type rowKind int

const (
	rowEnabled rowKind = iota
	rowEngine
	rowPrefix
	rowVolume
	rowCache
	rowInterval
	rowIntervalMinutes
	rowProximity
	rowProximityAutomation
	rowProximityDistance
	rowAdvanced
	rowGlobalLanguage
	rowGlobalOptions
	rowAddDevice
	rowDevice
	rowDeviceEngine
	rowDeviceVolume
	rowDeviceCache
	rowDeviceLanguage
	rowDeviceOptions
	rowTestAll
	rowDelete
)

type settingsRow struct {
	kind   rowKind
	device string
}

const volumeStep = 0.05

// detailsScreen is the UI-only state of the details view. It is replaced
// whenever the session ends.
type detailsScreen struct {
	cursor        int
	addIndex      int
	confirmDelete bool
	editor        editor
}

func newDetailsScreen() detailsScreen {
	return detailsScreen{editor: newEditor()}
}

// buildRows lists the settings rows in display order for the session.
func buildRows(sess *panel.Session) []settingsRow {
	if sess == nil {
		return nil
	}
	s := sess.Settings
	rows := []settingsRow{
		{kind: rowEnabled},
		{kind: rowEngine},
		{kind: rowPrefix},
		{kind: rowVolume},
		{kind: rowCache},
		{kind: rowInterval},
	}
	if s.IntervalEnabled {
		rows = append(rows, settingsRow{kind: rowIntervalMinutes})
	}
	rows = append(rows, settingsRow{kind: rowProximity})
	if s.ProximityEnabled {
		rows = append(rows,
			settingsRow{kind: rowProximityAutomation},
			settingsRow{kind: rowProximityDistance},
		)
	}
	rows = append(rows, settingsRow{kind: rowAdvanced})
	if sess.AdvancedOpen {
		rows = append(rows,
			settingsRow{kind: rowGlobalLanguage},
			settingsRow{kind: rowGlobalOptions},
		)
	}
	rows = append(rows, settingsRow{kind: rowAddDevice})
	for _, d := range s.Devices {
		rows = append(rows, settingsRow{kind: rowDevice, device: d})
		if !sess.Toggles.Expanded(d) {
			continue
		}
		rows = append(rows,
			settingsRow{kind: rowDeviceEngine, device: d},
			settingsRow{kind: rowDeviceVolume, device: d},
			settingsRow{kind: rowDeviceCache, device: d},
			settingsRow{kind: rowDeviceLanguage, device: d},
			settingsRow{kind: rowDeviceOptions, device: d},
		)
	}
	return append(rows, settingsRow{kind: rowTestAll}, settingsRow{kind: rowDelete})
}

func (a App) rows() []settingsRow {
	return buildRows(a.ctrl.Session())
}

func (a App) currentRow() (settingsRow, bool) {
	rows := a.rows()
	if a.details.cursor < 0 || a.details.cursor >= len(rows) {
		return settingsRow{}, false
	}
	return rows[a.details.cursor], true
}

// addable lists catalogue devices not yet in the document.
func addable(sess *panel.Session) []models.EntityRef {
	var out []models.EntityRef
	for _, d := range sess.Catalog.Devices {
		if !slices.Contains(sess.Settings.Devices, d.EntityID) {
			out = append(out, d)
		}
	}
	return out
}

func refIDs(refs []models.EntityRef) []string {
	ids := make([]string, 0, len(refs)+1)
	ids = append(ids, "")
	for _, r := range refs {
		ids = append(ids, r.EntityID)
	}
	return ids
}

// cycle steps through options from current, wrapping at both ends.
func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	i := slices.Index(options, current)
	if i < 0 {
		i = 0
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}

func stepVolume(v float64, delta int) float64 {
	return settings.ClampVolume(math.Round((v+float64(delta)*volumeStep)*100) / 100)
}

// persist optimistically stores next and saves it.
func (a *App) persist(next models.NotificationSettings) tea.Cmd {
	t, ok := a.ctrl.WriteSettings(next)
	if !ok {
		return nil
	}
	return saveSettings(a.backend, t, next)
}

func (a *App) updateDetailsKey(msg tea.KeyMsg) tea.Cmd {
	sess := a.ctrl.Session()
	if sess == nil {
		return nil
	}

	if a.details.editor.active {
		return a.updateEditor(msg)
	}

	if a.details.confirmDelete {
		a.details.confirmDelete = false
		if key.Matches(msg, keys.Confirm) {
			return deleteAccount(a.backend, sess.AccountID)
		}
		return nil
	}

	rows := a.rows()
	switch {
	case key.Matches(msg, keys.Back):
		a.leaveDetails()
		a.ctrl.Back()
		return nil
	case key.Matches(msg, keys.Up):
		if a.details.cursor > 0 {
			a.details.cursor--
		}
		return nil
	case key.Matches(msg, keys.Down):
		if a.details.cursor < len(rows)-1 {
			a.details.cursor++
		}
		return nil
	case key.Matches(msg, keys.Refresh):
		if t, ok := a.ctrl.RefreshDetail(); ok {
			return fetchDetail(a.backend, t)
		}
		return nil
	case key.Matches(msg, keys.Delete):
		a.details.confirmDelete = true
		return nil
	case key.Matches(msg, keys.Advanced):
		sess.AdvancedOpen = !sess.AdvancedOpen
		return nil
	}

	// Until the stored document is in, Session.Settings holds defaults and
	// a full-document save would overwrite what the backend has.
	if !sess.SettingsLoaded {
		return nil
	}
	if key.Matches(msg, keys.TestAll) {
		return a.testDevices(sess.Settings.Devices)
	}

	row, ok := a.currentRow()
	if !ok {
		return nil
	}
	if row.device != "" && key.Matches(msg, keys.Test) {
		return a.testDevices([]string{row.device})
	}

	delta := 0
	switch {
	case key.Matches(msg, keys.Left):
		delta = -1
	case key.Matches(msg, keys.Right):
		delta = 1
	}
	activate := key.Matches(msg, keys.Open) || key.Matches(msg, keys.Toggle)

	s := sess.Settings
	switch row.kind {
	case rowEnabled, rowCache, rowInterval, rowProximity:
		if !activate {
			return nil
		}
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) {
			switch row.kind {
			case rowEnabled:
				n.Enabled = !n.Enabled
			case rowCache:
				n.Cache = !n.Cache
			case rowInterval:
				n.IntervalEnabled = !n.IntervalEnabled
			case rowProximity:
				n.ProximityEnabled = !n.ProximityEnabled
			}
		}))

	case rowEngine:
		if activate {
			delta = 1
		}
		if delta == 0 {
			return nil
		}
		engine := cycle(refIDs(sess.Catalog.Engines), s.EngineID, delta)
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) { n.EngineID = engine }))

	case rowVolume:
		if delta == 0 {
			return nil
		}
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) { n.Volume = stepVolume(n.Volume, delta) }))

	case rowIntervalMinutes:
		if delta == 0 {
			return nil
		}
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) {
			n.IntervalMinutes = settings.StepInterval(n.IntervalMinutes, delta)
		}))

	case rowProximityAutomation:
		if activate {
			delta = 1
		}
		if delta == 0 {
			return nil
		}
		ref := cycle(refIDs(sess.Automations), s.ProximityAutomation, delta)
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) { n.ProximityAutomation = ref }))

	case rowProximityDistance:
		if delta == 0 {
			return nil
		}
		return a.persist(settings.Write(s, func(n *models.NotificationSettings) {
			n.ProximityDistanceFeet = settings.StepProximity(n.ProximityDistanceFeet, delta)
		}))

	case rowPrefix:
		if key.Matches(msg, keys.Open) {
			a.openEditor(editTarget{Field: fieldPrefix})
		}
		return nil

	case rowAdvanced:
		if activate {
			sess.AdvancedOpen = !sess.AdvancedOpen
		}
		return nil

	case rowGlobalLanguage:
		if key.Matches(msg, keys.Open) {
			a.openEditor(editTarget{Field: fieldLanguage})
		}
		return nil

	case rowGlobalOptions:
		if key.Matches(msg, keys.Open) {
			a.openEditor(editTarget{Field: fieldOptions})
		}
		return nil

	case rowAddDevice:
		candidates := addable(sess)
		if len(candidates) == 0 {
			return nil
		}
		if delta != 0 {
			n := len(candidates)
			a.details.addIndex = ((a.details.addIndex+delta)%n + n) % n
			return nil
		}
		if !key.Matches(msg, keys.Open) {
			return nil
		}
		pick := candidates[min(a.details.addIndex, len(candidates)-1)]
		a.details.addIndex = 0
		return a.persist(settings.AddDevice(s, pick.EntityID))

	case rowDevice:
		if key.Matches(msg, keys.Remove) {
			sess.Toggles.Forget(row.device)
			cmd := a.persist(settings.RemoveDevice(s, row.device))
			a.clampCursor()
			return cmd
		}
		if activate {
			sess.Toggles.ToggleExpanded(row.device)
		}
		return nil

	case rowDeviceEngine:
		if activate {
			delta = 1
		}
		if delta == 0 {
			return nil
		}
		current := ""
		if o, ok := s.DeviceOverrides[row.device]; ok {
			current = o.EngineID
		}
		engine := cycle(refIDs(sess.Catalog.Engines), current, delta)
		return a.persist(settings.SetDeviceEngine(s, row.device, engine))

	case rowDeviceVolume:
		if delta == 0 {
			return nil
		}
		v := settings.Resolve(s, row.device).Volume
		return a.persist(settings.SetDeviceVolume(s, row.device, stepVolume(v, delta)))

	case rowDeviceCache:
		if !activate {
			return nil
		}
		return a.persist(settings.ToggleDeviceCache(s, row.device))

	case rowDeviceLanguage, rowDeviceOptions:
		return a.updateOverrideRow(sess, row, msg)

	case rowTestAll:
		if activate {
			return a.testDevices(s.Devices)
		}
		return nil

	case rowDelete:
		if activate {
			a.details.confirmDelete = true
		}
		return nil
	}
	return nil
}

// updateOverrideRow drives the per-device language and options editors.
// Space switches the override; enter edits it, switching it on first.
func (a *App) updateOverrideRow(sess *panel.Session, row settingsRow, msg tea.KeyMsg) tea.Cmd {
	f := fieldLanguage
	toggle := sess.Toggles.ToggleLanguage
	enabled := sess.Toggles.LanguageEnabled(sess.Settings, row.device)
	if row.kind == rowDeviceOptions {
		f = fieldOptions
		toggle = sess.Toggles.ToggleOptions
		enabled = sess.Toggles.OptionsEnabled(sess.Settings, row.device)
	}
	target := editTarget{Field: f, Device: row.device}

	switch {
	case key.Matches(msg, keys.Toggle):
		a.debounce.Cancel(target.key())
		next, persist := toggle(sess.Settings, row.device)
		if persist {
			return a.persist(next)
		}
		return nil
	case key.Matches(msg, keys.Open):
		if !enabled {
			toggle(sess.Settings, row.device)
		}
		a.openEditor(target)
	}
	return nil
}

func (a *App) clampCursor() {
	n := len(a.rows())
	if a.details.cursor >= n {
		a.details.cursor = n - 1
	}
	if a.details.cursor < 0 {
		a.details.cursor = 0
	}
}

// testDevices sends one diagnostic announcement per device. A device
// without an effective engine is rejected before anything is sent.
func (a *App) testDevices(devices []string) tea.Cmd {
	sess := a.ctrl.Session()
	if sess == nil {
		return nil
	}
	if len(devices) == 0 {
		return a.setStatus("Add a media player first.", true)
	}
	tests, err := voiceTests(sess.Settings, sess.Toggles, devices)
	if err != nil {
		return a.setStatus(err.Error(), true)
	}
	return runVoiceTests(a.backend, tests)
}

func (a *App) openEditor(t editTarget) {
	sess := a.ctrl.Session()
	if sess == nil {
		return
	}
	a.details.editor.open(t, t.text(sess.Settings, sess.Toggles))
}

func (a *App) updateEditor(msg tea.KeyMsg) tea.Cmd {
	ed := &a.details.editor
	switch {
	case key.Matches(msg, keys.Back),
		!ed.multiline && msg.Type == tea.KeyEnter,
		ed.multiline && key.Matches(msg, keys.Save):
		return a.commitEdit()
	}
	if !ed.update(msg) {
		return nil
	}
	t, v := ed.target, ed.value()
	seq := a.debounce.Next(t.key())
	return tea.Tick(a.delay(t.Field), func(time.Time) tea.Msg {
		return debounceMsg{Target: t, Seq: seq, Value: v}
	})
}

// commitEdit closes the editor and writes its text now, dropping whatever
// was still waiting for the debounce delay.
func (a *App) commitEdit() tea.Cmd {
	ed := &a.details.editor
	t, v := ed.target, ed.value()
	ed.close()
	a.debounce.Cancel(t.key())
	sess := a.ctrl.Session()
	if sess == nil || t.same(sess.Settings, sess.Toggles, v) {
		return nil
	}
	return a.persist(t.apply(sess.Settings, v))
}

func (a *App) flushDebounced(msg debounceMsg) tea.Cmd {
	if !a.debounce.Live(msg.Target.key(), msg.Seq) {
		return nil
	}
	sess := a.ctrl.Session()
	if sess == nil {
		return nil
	}
	return a.persist(msg.Target.apply(sess.Settings, msg.Value))
}

func (a *App) leaveDetails() {
	a.debounce.Reset()
	a.details = newDetailsScreen()
}

func (a App) renderDetails() string {
	var b strings.Builder
	d := a.ctrl.Detail()
	sess := a.ctrl.Session()
	home := a.ctrl.Home()

	b.WriteString(logoStyle.Render(logo) + "\n\n")
	b.WriteString(renderAccountHeader(d.AccountSnapshot, home))
	if a.ctrl.IsPlaceholder() {
		b.WriteString("  " + a.spinner.View())
	}
	b.WriteString("\n")
	if sess != nil && sess.Profile != nil && sess.Profile.FullName() != "" {
		b.WriteString(subtitleStyle.Render(sess.Profile.FullName()) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(renderAccountCards(d.AccountSnapshot, home, false))
	b.WriteString("\n")
	if a.ctrl.IsPlaceholder() {
		b.WriteString(renderPlaceholder(d))
	}
	b.WriteString(renderTracking(d))
	b.WriteString(renderHistory(sess, a.spinner.View()))
	b.WriteString(a.renderSettings(sess))

	if a.details.confirmDelete {
		b.WriteString("\n" + errorStyle.Render("Delete this account? (y/N)") + "\n")
	}

	b.WriteString("\n")
	if a.details.editor.active {
		b.WriteString(helpLine(keys.Back, keys.Save))
	} else {
		b.WriteString(helpLine(keys.Up, keys.Down, keys.Toggle, keys.Open, keys.Left, keys.Right,
			keys.Test, keys.TestAll, keys.Remove, keys.Advanced, keys.Delete, keys.Back))
	}
	b.WriteString(a.renderStatus())
	return b.String()
}

// renderPlaceholder shows the provisional flat fields verbatim until the
// real record arrives.
func renderPlaceholder(d models.AccountDetail) string {
	return mutedStyle.Render(fmt.Sprintf("Restaurant: %s · Driver: %s · ETA: %s",
		d.RestaurantName, d.DriverName, d.DriverETA)) + "\n"
}

func renderTracking(d models.AccountDetail) string {
	var lines []string
	if d.OrderStatusDescription != "" && d.OrderStatusDescription != d.OrderStatus {
		lines = append(lines, mutedStyle.Render(d.OrderStatusDescription))
	}
	if d.LatestArrival != "" && d.LatestArrival != models.NoLatestArrival && d.LatestArrival != status.LabelEmpty {
		lines = append(lines, "Latest arrival: "+d.LatestArrival)
	}
	tracking := "Tracking: off"
	if d.TrackingActive {
		tracking = successStyle.Render("Tracking: live")
	}
	lines = append(lines, tracking)
	if d.MapURL != "" {
		lines = append(lines, mutedStyle.Render(d.MapURL))
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderHistory(sess *panel.Session, spin string) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Order history") + "\n")
	switch {
	case sess == nil || (sess.History == nil && sess.HistoryLoading):
		b.WriteString(spin + " Loading history…\n")
		return b.String()
	case sess.History == nil || sess.History.Statistics == nil:
		b.WriteString(mutedStyle.Render("No history available") + "\n")
		return b.String()
	}
	st := sess.History.Statistics
	fmt.Fprintf(&b, "%d: %d orders, $%.2f spent, $%.2f in delivery fees\n",
		st.Year, st.TotalOrders, st.TotalSpent, st.TotalDeliveryFees)
	for i, r := range st.TopRestaurants {
		fmt.Fprintf(&b, "  %d. %s (%d orders, $%.2f)\n", i+1, r.Name, r.OrderCount, r.TotalSpent)
	}
	if sess.History.FromCache {
		b.WriteString(mutedStyle.Render("cached, refreshing in background") + "\n")
	}
	return b.String()
}

func (a App) renderSettings(sess *panel.Session) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Voice notifications"))
	if sess == nil {
		return b.String() + "\n"
	}
	if !sess.SettingsLoaded {
		b.WriteString(" " + a.spinner.View() + "\n")
		return b.String()
	}
	b.WriteString("\n")

	for i, row := range buildRows(sess) {
		line := rowText(sess, row, a.details.addIndex)
		if i == a.details.cursor {
			line = selectedStyle.Render("› " + line)
		} else {
			line = normalStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
		if a.details.editor.active && i == a.details.cursor {
			b.WriteString(a.details.editor.view() + "\n")
		}
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func refLabel(refs []models.EntityRef, id string) string {
	if id == "" {
		return "None"
	}
	for _, r := range refs {
		if r.EntityID == id {
			return r.Label()
		}
	}
	return id
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return status.LabelEmpty
	}
	return s
}

func inline(options map[string]any) string {
	text := settings.FormatOptions(options)
	if text == "" {
		return status.LabelEmpty
	}
	return strings.ReplaceAll(text, "\n", ", ")
}

func rowText(sess *panel.Session, row settingsRow, addIndex int) string {
	s := sess.Settings
	engines := sess.Catalog.Engines
	switch row.kind {
	case rowEnabled:
		return "Voice notifications: " + onOff(s.Enabled)
	case rowEngine:
		return "Engine: " + refLabel(engines, s.EngineID)
	case rowPrefix:
		return "Message prefix: " + s.MessagePrefix
	case rowVolume:
		return "Volume: " + percent(s.Volume)
	case rowCache:
		return "Cache: " + onOff(s.Cache)
	case rowInterval:
		return "Periodic updates: " + onOff(s.IntervalEnabled)
	case rowIntervalMinutes:
		return fmt.Sprintf("  Every %d minutes", settings.ClampInterval(s.IntervalMinutes))
	case rowProximity:
		return "Driver nearby automation: " + onOff(s.ProximityEnabled)
	case rowProximityAutomation:
		return "  Automation: " + refLabel(sess.Automations, s.ProximityAutomation)
	case rowProximityDistance:
		return fmt.Sprintf("  Trigger within %d ft", settings.ClampProximity(s.ProximityDistanceFeet))
	case rowAdvanced:
		if sess.AdvancedOpen {
			return "Advanced ▾"
		}
		return "Advanced ▸"
	case rowGlobalLanguage:
		return "  Language: " + orDash(s.Language)
	case rowGlobalOptions:
		return "  Options: " + inline(s.Options)
	case rowAddDevice:
		candidates := addable(sess)
		if len(candidates) == 0 {
			return mutedStyle.Render("Add media player: none available")
		}
		return "Add media player: ‹ " + candidates[min(addIndex, len(candidates)-1)].Label() + " ›"
	case rowDevice:
		arrow := "▸"
		if sess.Toggles.Expanded(row.device) {
			arrow = "▾"
		}
		r := sess.Toggles.Resolve(s, row.device)
		return fmt.Sprintf("%s %s  %s, %s", arrow, refLabel(sess.Catalog.Devices, row.device),
			refLabel(engines, r.EngineID), percent(r.Volume))
	case rowDeviceEngine:
		o := s.DeviceOverrides[row.device]
		if o.EngineID == "" {
			return "    Engine: inherit (" + refLabel(engines, s.EngineID) + ")"
		}
		return "    Engine: " + refLabel(engines, o.EngineID)
	case rowDeviceVolume:
		return "    Volume: " + percent(settings.Resolve(s, row.device).Volume)
	case rowDeviceCache:
		return "    Cache: " + onOff(settings.Resolve(s, row.device).Cache)
	case rowDeviceLanguage:
		if !sess.Toggles.LanguageEnabled(s, row.device) {
			return "    Language override: Off"
		}
		return "    Language override: " + orDash(sess.Toggles.LanguageText(s, row.device))
	case rowDeviceOptions:
		if !sess.Toggles.OptionsEnabled(s, row.device) {
			return "    Options override: Off"
		}
		return "    Options override: " + inline(sess.Toggles.Resolve(s, row.device).Options)
	case rowTestAll:
		return "Test all media players"
	case rowDelete:
		return errorStyle.Render("Delete account")
	}
	return ""
}
