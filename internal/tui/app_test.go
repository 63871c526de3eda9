package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"eatsdash/internal/client"
	"eatsdash/internal/config"
	"eatsdash/internal/models"
	"eatsdash/internal/panel"
	"eatsdash/internal/settings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const kitchen = "media_player.kitchen"

type fakeBackend struct {
	mu          sync.Mutex
	accounts    models.AccountList
	details     map[string]models.AccountDetail
	settings    models.NotificationSettings
	catalog     models.EntityCatalog
	automations []models.EntityRef
	history     models.OrderHistory

	saveErr error
	saved   []models.NotificationSettings
	tests   []models.VoiceTest
	deleted []string
}

func (f *fakeBackend) ListAccounts(ctx context.Context) (*models.AccountList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.accounts
	return &list, nil
}

func (f *fakeBackend) GetAccount(ctx context.Context, entryID string) (*models.AccountDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[entryID]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Code: "not_found", Message: "account not found"}
	}
	return &d, nil
}

func (f *fakeBackend) DeleteAccount(ctx context.Context, entryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, entryID)
	return nil
}

func (f *fakeBackend) GetSettings(ctx context.Context, entryID string) (*models.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := settings.Clone(f.settings)
	return &s, nil
}

func (f *fakeBackend) SaveSettings(ctx context.Context, entryID string, s models.NotificationSettings) (*models.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, settings.Clone(s))
	f.settings = settings.Sanitize(s)
	stored := settings.Clone(f.settings)
	return &stored, nil
}

func (f *fakeBackend) ListEntities(ctx context.Context) (*models.EntityCatalog, error) {
	c := f.catalog
	return &c, nil
}

func (f *fakeBackend) ListAutomations(ctx context.Context) ([]models.EntityRef, error) {
	return f.automations, nil
}

func (f *fakeBackend) TestVoice(ctx context.Context, test models.VoiceTest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests = append(f.tests, test)
	return nil
}

func (f *fakeBackend) GetHistory(ctx context.Context, entryID string) (*models.OrderHistory, error) {
	h := f.history
	return &h, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, entryID string) (*models.UserProfile, error) {
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Code: "not_found", Message: "no profile"}
}

func (f *fakeBackend) lastSaved(t *testing.T) models.NotificationSettings {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		t.Fatal("nothing was saved")
	}
	return f.saved[len(f.saved)-1]
}

func fptr(f float64) *float64 { return &f }

func account(id, name string, orders ...models.OrderSnapshot) models.AccountSnapshot {
	return models.AccountSnapshot{
		EntryID:          id,
		AccountName:      name,
		ConnectionStatus: models.ConnectionConnected,
		Orders:           orders,
	}.WithPrimaryFields()
}

func newFake() *fakeBackend {
	sam := account("sam", "Sam", models.OrderSnapshot{
		OrderID:        "o-1",
		RestaurantName: "Pho Corner",
		OrderStage:     "en route",
		OrderStatus:    "Heading your way",
		DriverName:     "Alex",
		DriverETA:      "12:30",
		DriverLocation: &models.Location{Lat: fptr(40.0004), Lon: fptr(-73.0)},
	})
	s := settings.Defaults()
	s.MessagePrefix = "Hello"
	s.Language = "en"
	s.EngineID = "tts.google"
	s.Devices = []string{kitchen}
	return &fakeBackend{
		accounts: models.AccountList{Accounts: []models.AccountSnapshot{sam}, Version: "1"},
		details:  map[string]models.AccountDetail{"sam": {AccountSnapshot: sam, TrackingActive: true, DriverAssigned: true}},
		settings: s,
		catalog: models.EntityCatalog{
			Engines: []models.EntityRef{{EntityID: "tts.google", Name: "Google"}},
			Devices: []models.EntityRef{{EntityID: kitchen, Name: "Kitchen"}, {EntityID: "media_player.den", Name: "Den"}},
		},
		history: models.OrderHistory{Orders: []models.PastOrder{}, Statistics: &models.Statistics{Year: 2026, TopRestaurants: []models.RestaurantStat{}}},
	}
}

func newTestApp(fb *fakeBackend) App {
	a := NewApp(Options{
		Backend:         fb,
		Home:            &models.Coordinate{Lat: 40.0, Lon: -73.0},
		RefreshInterval: time.Millisecond,
		Debounce:        config.Debounce{Prefix: time.Millisecond, Language: time.Millisecond, Options: time.Millisecond},
		Logger:          zap.NewNop(),
	})
	a.statusTTL = time.Millisecond
	return a
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return next, cmd
}

// run executes cmd and flattens batches into the messages they produce.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed runs cmd, delivers every resulting message and returns the commands
// the app issued in response.
func feed(t *testing.T, a App, cmd tea.Cmd) (App, []tea.Cmd) {
	t.Helper()
	var next []tea.Cmd
	for _, msg := range run(cmd) {
		var c tea.Cmd
		a, c = update(t, a, msg)
		if c != nil {
			next = append(next, c)
		}
	}
	return a, next
}

func press(t *testing.T, a App, k string) (App, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return update(t, a, msg)
}

func loadAccounts(t *testing.T, a App, fb *fakeBackend) App {
	t.Helper()
	a, _ = update(t, a, AccountsLoadedMsg{List: fb.accounts})
	return a
}

// openSam selects the first account and completes every fetch the details
// view starts.
func openSam(t *testing.T, fb *fakeBackend) App {
	t.Helper()
	a := loadAccounts(t, newTestApp(fb), fb)
	a, cmd := press(t, a, "enter")
	if a.ctrl.View() != panel.ViewDetails {
		t.Fatalf("view = %v, want details", a.ctrl.View())
	}
	a, next := feed(t, a, cmd)
	if len(next) != 1 {
		t.Fatalf("expected the session fetches after the first detail, got %d commands", len(next))
	}
	a, _ = feed(t, a, next[0])
	if a.ctrl.IsPlaceholder() || !a.ctrl.Session().SettingsLoaded {
		t.Fatal("session did not finish loading")
	}
	return a
}

func cursorTo(t *testing.T, a App, kind rowKind, device string) App {
	t.Helper()
	for i, r := range a.rows() {
		if r.kind == kind && r.device == device {
			a.details.cursor = i
			return a
		}
	}
	t.Fatalf("row %v for %q not shown", kind, device)
	return a
}

func TestNullDriverCardShowsPreparingAndHome(t *testing.T) {
	fb := newFake()
	fb.accounts.Accounts = []models.AccountSnapshot{
		account("kim", "Kim", models.OrderSnapshot{OrderID: "o-2", RestaurantName: "Taco Spot", OrderStage: "en route"}),
	}
	a := loadAccounts(t, newTestApp(fb), fb)

	view := a.View()
	for _, want := range []string{"Preparing order", "Map: Home", "Taco Spot"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDriverNearHomeShowsArrived(t *testing.T) {
	fb := newFake()
	a := loadAccounts(t, newTestApp(fb), fb)

	view := a.View()
	if !strings.Contains(view, "Arrived") {
		t.Errorf("view missing Arrived:\n%s", view)
	}
	if !strings.Contains(view, "Map: Driver") {
		t.Errorf("view missing driver map label:\n%s", view)
	}
}

func TestIdleAccountRendersNoOrderCard(t *testing.T) {
	fb := newFake()
	fb.accounts.Accounts = []models.AccountSnapshot{account("idle", "Idle")}
	a := loadAccounts(t, newTestApp(fb), fb)

	if view := a.View(); !strings.Contains(view, models.NoActiveOrder) {
		t.Errorf("view missing no-order card:\n%s", view)
	}
}

func TestUnknownAccountShowsLoadingPlaceholder(t *testing.T) {
	fb := newFake()
	a := newTestApp(fb)
	if _, ok := a.ctrl.Select("ghost"); !ok {
		t.Fatal("select failed")
	}

	view := a.View()
	for _, want := range []string{panel.LoadingName, panel.Dash, models.NoETA} {
		if !strings.Contains(view, want) {
			t.Errorf("placeholder view missing %q:\n%s", want, view)
		}
	}
}

func TestOpenAccountLoadsSession(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	sess := a.ctrl.Session()
	if sess.Settings.MessagePrefix != "Hello" {
		t.Errorf("prefix = %q", sess.Settings.MessagePrefix)
	}
	if len(sess.Catalog.Devices) != 2 {
		t.Errorf("catalog devices = %d", len(sess.Catalog.Devices))
	}
	if sess.Profile != nil {
		t.Errorf("profile = %+v, want none", sess.Profile)
	}
	if sess.History == nil || sess.HistoryLoading {
		t.Error("history not loaded")
	}
}

func TestLanguageToggleOnOffPersistsEmpty(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	a = cursorTo(t, a, rowDevice, kitchen)
	a, _ = press(t, a, "space")
	a = cursorTo(t, a, rowDeviceLanguage, kitchen)

	a, cmd := press(t, a, "space")
	if cmd != nil {
		t.Fatal("switching the override on must not persist")
	}
	sess := a.ctrl.Session()
	if !sess.Toggles.LanguageEnabled(sess.Settings, kitchen) {
		t.Fatal("language editor not enabled")
	}
	if got := sess.Toggles.Resolve(sess.Settings, kitchen).Language; got != "" {
		t.Errorf("enabled blank override resolved to %q, want blank", got)
	}

	a, cmd = press(t, a, "space")
	if cmd == nil {
		t.Fatal("switching the override off must persist")
	}
	a, _ = feed(t, a, cmd)

	saved := fb.lastSaved(t)
	o, ok := saved.DeviceOverrides[kitchen]
	if !ok || o.Language == nil || *o.Language != "" {
		t.Fatalf("saved override = %+v, want explicit empty language", o)
	}
	sess = a.ctrl.Session()
	if got := sess.Toggles.Resolve(sess.Settings, kitchen).Language; got != "en" {
		t.Errorf("language after toggle off = %q, want global en", got)
	}
}

func TestPrefixEditIsDebounced(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	a = cursorTo(t, a, rowPrefix, "")
	a, _ = press(t, a, "enter")
	if !a.details.editor.active {
		t.Fatal("editor not open")
	}

	a, first := press(t, a, "X")
	a, second := press(t, a, "Y")
	if first == nil || second == nil {
		t.Fatal("keystrokes must schedule a write")
	}

	a, next := feed(t, a, first)
	if len(next) != 0 || len(fb.saved) != 0 {
		t.Fatal("superseded keystroke wrote")
	}
	a, next = feed(t, a, second)
	if len(next) != 1 {
		t.Fatalf("last keystroke issued %d commands, want 1 save", len(next))
	}
	a, _ = feed(t, a, next[0])
	if got := fb.lastSaved(t).MessagePrefix; got != "HelloXY" {
		t.Errorf("saved prefix = %q", got)
	}

	a, cmd := press(t, a, "enter")
	if cmd != nil {
		t.Error("closing an editor with nothing new must not write again")
	}
	if a.details.editor.active {
		t.Error("editor still open")
	}
}

func TestOptionsEditCommitsOnClose(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	a = cursorTo(t, a, rowDevice, kitchen)
	a, _ = press(t, a, "space")
	a = cursorTo(t, a, rowDeviceOptions, kitchen)
	a, _ = press(t, a, "enter")
	if !a.details.editor.active || !a.details.editor.multiline {
		t.Fatal("options editor not open")
	}
	for _, r := range "voice: alto" {
		a, _ = press(t, a, string(r))
	}
	a, cmd := press(t, a, "esc")
	if cmd == nil {
		t.Fatal("closing the editor must write")
	}
	a, _ = feed(t, a, cmd)

	saved := fb.lastSaved(t)
	if got := saved.DeviceOverrides[kitchen].Options["voice"]; got != "alto" {
		t.Errorf("saved options = %v", saved.DeviceOverrides[kitchen].Options)
	}
}

func TestSettingsLockedUntilLoaded(t *testing.T) {
	fb := newFake()
	a := loadAccounts(t, newTestApp(fb), fb)
	a, detailCmd := press(t, a, "enter")

	a = cursorTo(t, a, rowEnabled, "")
	a, cmd := press(t, a, "space")
	if cmd != nil {
		t.Fatal("toggle before load issued a command")
	}
	a = cursorTo(t, a, rowPrefix, "")
	a, _ = press(t, a, "enter")
	if a.details.editor.active {
		t.Fatal("editor opened before load")
	}
	if view := a.View(); strings.Contains(view, "Message prefix") {
		t.Errorf("settings rows shown before load:\n%s", view)
	}

	a, next := feed(t, a, detailCmd)
	for _, c := range next {
		a, _ = feed(t, a, c)
	}
	if len(fb.saved) != 0 {
		t.Fatalf("saved %d documents before load", len(fb.saved))
	}
	sess := a.ctrl.Session()
	if !sess.SettingsLoaded || len(sess.Settings.Devices) != 1 || sess.Settings.Devices[0] != kitchen {
		t.Errorf("loaded settings = %+v", sess.Settings)
	}
}

func TestProximityStepStopsAtFloor(t *testing.T) {
	fb := newFake()
	fb.settings.ProximityEnabled = true
	fb.settings.ProximityDistanceFeet = settings.MinProximityFeet
	a := openSam(t, fb)

	a = cursorTo(t, a, rowProximityDistance, "")
	a, cmd := press(t, a, "h")
	a, _ = feed(t, a, cmd)
	if got := fb.lastSaved(t).ProximityDistanceFeet; got != settings.MinProximityFeet {
		t.Errorf("distance after step down = %d, want %d", got, settings.MinProximityFeet)
	}
	if got := a.ctrl.Session().Settings.ProximityDistanceFeet; got != settings.MinProximityFeet {
		t.Errorf("local distance = %d", got)
	}
}

func TestSaveFailureReconciles(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)
	fb.saveErr = errors.New("boom")

	a = cursorTo(t, a, rowEnabled, "")
	a, cmd := press(t, a, "space")
	if !a.ctrl.Session().Settings.Enabled {
		t.Fatal("toggle was not applied optimistically")
	}
	a, next := feed(t, a, cmd)
	if !a.statusIsError || !strings.Contains(a.statusMsg, "Failed to save settings") {
		t.Errorf("status = %q (error %v)", a.statusMsg, a.statusIsError)
	}
	if len(next) != 1 {
		t.Fatalf("expected status clear and re-fetch, got %d commands", len(next))
	}
	a, _ = feed(t, a, next[0])
	if a.ctrl.Session().Settings.Enabled {
		t.Error("failed save was not reconciled with the backend")
	}
}

func TestVoiceTestWithoutEngineRejectedLocally(t *testing.T) {
	fb := newFake()
	fb.settings.EngineID = ""
	a := openSam(t, fb)

	a, _ = press(t, a, "T")
	if a.statusMsg != errNoEngine || !a.statusIsError {
		t.Errorf("status = %q", a.statusMsg)
	}
	if len(fb.tests) != 0 {
		t.Errorf("sent %d tests", len(fb.tests))
	}
}

func TestVoiceTestUsesEffectiveSettings(t *testing.T) {
	fb := newFake()
	fb.settings = settings.SetDeviceVolume(fb.settings, kitchen, 0.8)
	a := openSam(t, fb)

	a = cursorTo(t, a, rowDevice, kitchen)
	a, cmd := press(t, a, "t")
	a, _ = feed(t, a, cmd)

	if len(fb.tests) != 1 {
		t.Fatalf("sent %d tests", len(fb.tests))
	}
	got := fb.tests[0]
	if got.EngineID != "tts.google" || got.DeviceID != kitchen || got.Volume != 0.8 || got.Language != "en" {
		t.Errorf("test = %+v", got)
	}
	if !strings.HasPrefix(got.Message, "Hello") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestAddAndRemoveDevice(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	a = cursorTo(t, a, rowAddDevice, "")
	a, cmd := press(t, a, "enter")
	a, _ = feed(t, a, cmd)
	if got := fb.lastSaved(t).Devices; len(got) != 2 || got[1] != "media_player.den" {
		t.Fatalf("devices after add = %v", got)
	}

	a = cursorTo(t, a, rowDevice, kitchen)
	a, cmd = press(t, a, "x")
	a, _ = feed(t, a, cmd)
	if got := fb.lastSaved(t).Devices; len(got) != 1 || got[0] != "media_player.den" {
		t.Fatalf("devices after remove = %v", got)
	}
}

func TestTickRefreshesListAndDetail(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	_, cmd := update(t, a, TickMsg{})
	var sawList, sawDetail, sawTick bool
	for _, msg := range run(cmd) {
		switch msg.(type) {
		case AccountsLoadedMsg:
			sawList = true
		case DetailLoadedMsg:
			sawDetail = true
		case TickMsg:
			sawTick = true
		}
	}
	if !sawList || !sawDetail || !sawTick {
		t.Errorf("tick: list %v, detail %v, rescheduled %v", sawList, sawDetail, sawTick)
	}
}

func TestBackDropsLateDetail(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	ticket, ok := a.ctrl.RefreshDetail()
	if !ok {
		t.Fatal("no refresh ticket")
	}
	a, _ = press(t, a, "esc")
	if a.ctrl.View() != panel.ViewMain {
		t.Fatalf("view = %v", a.ctrl.View())
	}
	a, _ = update(t, a, DetailLoadedMsg{Ticket: ticket, Detail: fb.details["sam"]})
	if a.ctrl.View() != panel.ViewMain || a.ctrl.Session() != nil {
		t.Error("late detail reopened the account")
	}
}

func TestDeleteAfterConfirm(t *testing.T) {
	fb := newFake()
	a := openSam(t, fb)

	a, cmd := press(t, a, "D")
	if cmd != nil || !a.details.confirmDelete {
		t.Fatal("delete must ask first")
	}
	a, cmd = press(t, a, "y")
	a, _ = feed(t, a, cmd)

	if len(fb.deleted) != 1 || fb.deleted[0] != "sam" {
		t.Fatalf("deleted = %v", fb.deleted)
	}
	if a.ctrl.View() != panel.ViewMain {
		t.Errorf("view = %v", a.ctrl.View())
	}
	if _, ok := a.ctrl.Accounts().Find("sam"); ok {
		t.Error("deleted account still listed")
	}
}

func TestInstructionsFlow(t *testing.T) {
	fb := newFake()
	a := loadAccounts(t, newTestApp(fb), fb)

	a, _ = press(t, a, "a")
	if a.ctrl.View() != panel.ViewInstructions {
		t.Fatalf("view = %v", a.ctrl.View())
	}
	if !strings.Contains(a.View(), "Add an account") {
		t.Error("instructions not rendered")
	}
	a, _ = press(t, a, "esc")
	if a.ctrl.View() != panel.ViewMain {
		t.Fatalf("cancel: view = %v", a.ctrl.View())
	}
	a, _ = press(t, a, "a")
	a, _ = press(t, a, "enter")
	if a.ctrl.View() != panel.ViewMain || a.statusMsg == "" {
		t.Errorf("continue: view = %v, status %q", a.ctrl.View(), a.statusMsg)
	}
}

func TestListFailureMarksOffline(t *testing.T) {
	fb := newFake()
	a := loadAccounts(t, newTestApp(fb), fb)

	a, _ = update(t, a, AccountsFailMsg{Err: errors.New("dial tcp: refused")})
	if len(a.ctrl.Accounts().Accounts) != 1 {
		t.Error("last known list was dropped")
	}
	if !strings.Contains(a.View(), "backend unreachable") {
		t.Error("offline indicator missing")
	}
}
