package tui

import (
	"eatsdash/internal/models"
	"eatsdash/internal/panel"
)

type TickMsg struct{}

type AccountsLoadedMsg struct {
	List models.AccountList
}

type AccountsFailMsg struct {
	Err error
}

type DetailLoadedMsg struct {
	Ticket panel.Ticket
	Detail models.AccountDetail
}

type DetailFailMsg struct {
	Ticket panel.Ticket
	Err    error
}

// SessionLoadedMsg carries the fetches that start together once the first
// authoritative detail record arrives. Each part fails independently.
type SessionLoadedMsg struct {
	Ticket         panel.SettingsTicket
	Settings       *models.NotificationSettings
	SettingsErr    error
	Catalog        *models.EntityCatalog
	CatalogErr     error
	Automations    []models.EntityRef
	AutomationsErr error
	Profile        *models.UserProfile
	ProfileErr     error
}

type SettingsLoadedMsg struct {
	Ticket   panel.SettingsTicket
	Settings models.NotificationSettings
}

type SettingsFailMsg struct {
	Ticket panel.SettingsTicket
	Err    error
}

type SettingsSavedMsg struct {
	Ticket   panel.SettingsTicket
	Settings models.NotificationSettings
}

type SettingsSaveFailMsg struct {
	Ticket panel.SettingsTicket
	Err    error
}

type HistoryLoadedMsg struct {
	Ticket  panel.Ticket
	History models.OrderHistory
	// Recheck marks the follow-up fetch made after a cached answer.
	Recheck bool
}

type HistoryFailMsg struct {
	Ticket panel.Ticket
	Err    error
}

type DeleteCompleteMsg struct {
	EntryID string
}

type DeleteFailMsg struct {
	EntryID string
	Err     error
}

type VoiceTestCompleteMsg struct {
	Devices int
}

type VoiceTestFailMsg struct {
	DeviceID string
	Err      error
}

// debounceMsg fires when a text edit has been quiet for its delay. Only the
// newest sequence for a key is still live.
type debounceMsg struct {
	Target editTarget
	Seq    uint64
	Value  string
}

type StatusMsg struct {
	Message string
	IsError bool
}

type ClearStatusMsg struct{}
