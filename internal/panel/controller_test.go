package panel

import (
	"testing"

	"eatsdash/internal/models"
	"eatsdash/internal/settings"
)

func listWith(accounts ...models.AccountSnapshot) models.AccountList {
	return models.AccountList{Accounts: accounts, Version: "1"}
}

func TestInstructionsTransitions(t *testing.T) {
	c := NewController(nil)
	if !c.ShowInstructions() || c.View() != ViewInstructions {
		t.Fatal("main -> instructions failed")
	}
	if c.ShowInstructions() {
		t.Fatal("instructions -> instructions accepted")
	}
	if _, ok := c.Select("a"); ok {
		t.Fatal("select from instructions accepted")
	}
	if !c.CancelInstructions() || c.View() != ViewMain {
		t.Fatal("cancel failed")
	}
	c.ShowInstructions()
	if !c.ContinueInstructions() || c.View() != ViewMain {
		t.Fatal("continue failed")
	}
	if c.ContinueInstructions() {
		t.Fatal("continue from main accepted")
	}
}

func TestSelectUnknownAccountShowsLoadingPlaceholder(t *testing.T) {
	c := NewController(nil)
	if _, ok := c.Select("missing"); !ok {
		t.Fatal("select failed")
	}
	d := c.Detail()
	if !c.IsPlaceholder() || c.View() != ViewDetails {
		t.Fatal("expected placeholder details view")
	}
	if d.AccountName != "Loading…" || d.RestaurantName != "—" || d.DriverETA != "No ETA" {
		t.Fatalf("placeholder fields = %q %q %q", d.AccountName, d.RestaurantName, d.DriverETA)
	}
	if d.Active || d.TrackingActive || d.DriverAssigned {
		t.Fatal("placeholder claims an order it cannot know about")
	}
	if d.DriverLocation != nil {
		t.Fatal("no home, so no location")
	}
}

func TestPlaceholderUsesHome(t *testing.T) {
	home := &models.Coordinate{Lat: 40, Lon: -73}
	d := Placeholder(models.AccountList{}, "x", home)
	if c := d.DriverLocation.Coordinate(); c == nil || *c != *home {
		t.Fatalf("driver location = %+v", d.DriverLocation)
	}
	if d.HomeLocation != home {
		t.Fatal("home not carried")
	}
}

func TestSelectKnownAccountCopiesListFields(t *testing.T) {
	acc := models.AccountSnapshot{
		EntryID:     "a",
		AccountName: "Sam",
		Active:      true,
		OrderStage:  "en route",
		OrderStatus: "Heading your way",
		DriverName:  "Alex",
		DriverETA:   "12:40",
	}
	c := NewController(nil)
	c.SetAccounts(listWith(acc))
	c.Select("a")

	d := c.Detail()
	if d.AccountName != "Sam" || d.OrderStage != "en route" || d.DriverETA != "12:40" {
		t.Fatalf("fields not copied: %+v", d)
	}
	if !d.DriverAssigned || !d.TrackingActive {
		t.Fatal("driver flags not derived")
	}
	if d.OrderStatusDescription != "Heading your way" {
		t.Fatalf("description = %q", d.OrderStatusDescription)
	}

	acc.DriverName = models.NoDriverAssigned
	c = NewController(nil)
	c.SetAccounts(listWith(acc))
	c.Select("a")
	if c.Detail().DriverAssigned || c.Detail().TrackingActive {
		t.Fatal("null driver treated as assigned")
	}
}

func TestApplyDetailSequenceGuard(t *testing.T) {
	c := NewController(nil)
	first, _ := c.Select("a")
	refresh, _ := c.RefreshDetail()

	applied, isFirst := c.ApplyDetail(refresh, models.AccountDetail{AccountSnapshot: models.AccountSnapshot{EntryID: "a", AccountName: "new"}})
	if !applied || !isFirst {
		t.Fatal("newest detail not applied as first")
	}
	if applied, _ := c.ApplyDetail(first, models.AccountDetail{AccountSnapshot: models.AccountSnapshot{EntryID: "a", AccountName: "old"}}); applied {
		t.Fatal("stale detail applied")
	}
	if c.Detail().AccountName != "new" || c.IsPlaceholder() {
		t.Fatalf("detail = %+v", c.Detail())
	}

	again, _ := c.RefreshDetail()
	applied, isFirst = c.ApplyDetail(again, models.AccountDetail{})
	if !applied || isFirst {
		t.Fatal("later refresh should apply but not be first")
	}
}

func TestCompletionAfterNavigationIgnored(t *testing.T) {
	c := NewController(nil)
	tk, _ := c.Select("a")
	c.Back()
	c.Select("a")

	if applied, _ := c.ApplyDetail(tk, models.AccountDetail{}); applied {
		t.Fatal("completion from previous selection applied")
	}
	if c.Current(tk) {
		t.Fatal("old ticket still current")
	}
}

func TestBackDiscardsSession(t *testing.T) {
	c := NewController(nil)
	c.Select("a")
	s := c.Session()
	s.Toggles.ToggleExpanded("media_player.kitchen")
	s.History = &models.OrderHistory{}

	if !c.Back() || c.View() != ViewMain {
		t.Fatal("back failed")
	}
	if c.Session() != nil || c.Selected() != "" {
		t.Fatal("session survived back")
	}

	c.Select("b")
	next := c.Session()
	if next.Toggles.Expanded("media_player.kitchen") || next.History != nil {
		t.Fatal("state leaked into next selection")
	}
}

func TestDeleted(t *testing.T) {
	c := NewController(nil)
	c.SetAccounts(listWith(models.AccountSnapshot{EntryID: "a"}, models.AccountSnapshot{EntryID: "b"}))
	c.Select("a")
	c.Deleted("a")
	if c.View() != ViewMain || c.Session() != nil {
		t.Fatal("delete of open account did not return to main")
	}
	if len(c.Accounts().Accounts) != 1 || c.Accounts().Accounts[0].EntryID != "b" {
		t.Fatalf("accounts = %+v", c.Accounts().Accounts)
	}
}

func TestSettingsGuard(t *testing.T) {
	c := NewController(nil)
	c.Select("a")

	fetch, _ := c.FetchSettings()
	local := settings.AddDevice(c.Session().Settings, "media_player.kitchen")
	write, _ := c.WriteSettings(local)

	if c.ApplySettings(fetch, settings.Defaults()) {
		t.Fatal("fetch that started before a write was applied")
	}
	if c.Session().SettingsLoaded {
		t.Fatal("rejected fetch marked settings loaded")
	}
	if len(c.Session().Settings.Devices) != 1 {
		t.Fatal("optimistic write lost")
	}
	if !c.LatestWrite(write) {
		t.Fatal("write should be latest")
	}

	reconcile, _ := c.FetchSettings()
	server := settings.Defaults()
	server.MessagePrefix = "From server"
	if !c.ApplySettings(reconcile, server) {
		t.Fatal("reconcile fetch rejected")
	}
	if c.Session().Settings.MessagePrefix != "From server" || !c.Session().SettingsLoaded {
		t.Fatal("settings not replaced")
	}

	second, _ := c.WriteSettings(c.Session().Settings)
	if c.LatestWrite(write) || !c.LatestWrite(second) {
		t.Fatal("latest write tracking wrong")
	}
}

func TestApplySettingsClamps(t *testing.T) {
	c := NewController(nil)
	c.Select("a")
	tk, _ := c.FetchSettings()
	s := settings.Defaults()
	s.IntervalMinutes = 90
	s.ProximityDistanceFeet = 1
	c.ApplySettings(tk, s)
	got := c.Session().Settings
	if got.IntervalMinutes != 15 || got.ProximityDistanceFeet != 50 {
		t.Fatalf("not clamped on read: %d %d", got.IntervalMinutes, got.ProximityDistanceFeet)
	}
}

func TestPlanRefresh(t *testing.T) {
	c := NewController(nil)
	r := c.PlanRefresh()
	if !r.Accounts || r.Detail != nil {
		t.Fatalf("main view plan = %+v", r)
	}
	c.Select("a")
	r = c.PlanRefresh()
	if !r.Accounts || r.Detail == nil || r.Detail.AccountID != "a" {
		t.Fatalf("details view plan = %+v", r)
	}
	if Interval(0) != DefaultRefreshInterval || Interval(DefaultRefreshInterval*2) != DefaultRefreshInterval*2 {
		t.Fatal("interval fallback wrong")
	}
}
