package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eatsdash/internal/models"
	"eatsdash/internal/panel"
	"eatsdash/internal/settings"

	tea "github.com/charmbracelet/bubbletea"
)

// Backend is the remote service the panel talks to. *client.Client
// implements it.
type Backend interface {
	ListAccounts(ctx context.Context) (*models.AccountList, error)
	GetAccount(ctx context.Context, entryID string) (*models.AccountDetail, error)
	DeleteAccount(ctx context.Context, entryID string) error
	GetSettings(ctx context.Context, entryID string) (*models.NotificationSettings, error)
	SaveSettings(ctx context.Context, entryID string, s models.NotificationSettings) (*models.NotificationSettings, error)
	ListEntities(ctx context.Context) (*models.EntityCatalog, error)
	ListAutomations(ctx context.Context) ([]models.EntityRef, error)
	TestVoice(ctx context.Context, test models.VoiceTest) error
	GetHistory(ctx context.Context, entryID string) (*models.OrderHistory, error)
	GetProfile(ctx context.Context, entryID string) (*models.UserProfile, error)
}

const requestTimeout = 10 * time.Second

const errNoEngine = "Please select a TTS engine first."

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

func fetchAccounts(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := b.ListAccounts(ctx)
		if err != nil {
			return AccountsFailMsg{Err: err}
		}
		return AccountsLoadedMsg{List: *list}
	}
}

func fetchDetail(b Backend, t panel.Ticket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		d, err := b.GetAccount(ctx, t.AccountID)
		if err != nil {
			return DetailFailMsg{Ticket: t, Err: err}
		}
		return DetailLoadedMsg{Ticket: t, Detail: *d}
	}
}

// loadSession runs the settings, catalogue, automation and profile fetches
// concurrently and reports once all of them have finished.
func loadSession(b Backend, t panel.SettingsTicket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := SessionLoadedMsg{Ticket: t}
		var wg sync.WaitGroup
		wg.Add(4)
		go func() {
			defer wg.Done()
			msg.Settings, msg.SettingsErr = b.GetSettings(ctx, t.AccountID)
		}()
		go func() {
			defer wg.Done()
			msg.Catalog, msg.CatalogErr = b.ListEntities(ctx)
		}()
		go func() {
			defer wg.Done()
			msg.Automations, msg.AutomationsErr = b.ListAutomations(ctx)
		}()
		go func() {
			defer wg.Done()
			msg.Profile, msg.ProfileErr = b.GetProfile(ctx, t.AccountID)
		}()
		wg.Wait()
		return msg
	}
}

func fetchSettings(b Backend, t panel.SettingsTicket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := b.GetSettings(ctx, t.AccountID)
		if err != nil {
			return SettingsFailMsg{Ticket: t, Err: err}
		}
		return SettingsLoadedMsg{Ticket: t, Settings: *s}
	}
}

func saveSettings(b Backend, t panel.SettingsTicket, s models.NotificationSettings) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		stored, err := b.SaveSettings(ctx, t.AccountID, s)
		if err != nil {
			return SettingsSaveFailMsg{Ticket: t, Err: err}
		}
		return SettingsSavedMsg{Ticket: t, Settings: *stored}
	}
}

func fetchHistory(b Backend, t panel.Ticket) tea.Cmd {
	return historyCmd(b, t, false)
}

func fetchHistoryAgain(b Backend, t panel.Ticket) tea.Cmd {
	return historyCmd(b, t, true)
}

func historyCmd(b Backend, t panel.Ticket, recheck bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		h, err := b.GetHistory(ctx, t.AccountID)
		if err != nil {
			return HistoryFailMsg{Ticket: t, Err: err}
		}
		return HistoryLoadedMsg{Ticket: t, History: *h, Recheck: recheck}
	}
}

func deleteAccount(b Backend, entryID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := b.DeleteAccount(ctx, entryID); err != nil {
			return DeleteFailMsg{EntryID: entryID, Err: err}
		}
		return DeleteCompleteMsg{EntryID: entryID}
	}
}

// voiceTests builds one diagnostic request per device from its effective
// settings. It fails without building anything when a device has no engine.
func voiceTests(s models.NotificationSettings, toggles *settings.Toggles, devices []string) ([]models.VoiceTest, error) {
	tests := make([]models.VoiceTest, 0, len(devices))
	for _, d := range devices {
		r := toggles.Resolve(s, d)
		if strings.TrimSpace(r.EngineID) == "" {
			return nil, errors.New(errNoEngine)
		}
		tests = append(tests, models.VoiceTest{
			EngineID: r.EngineID,
			DeviceID: d,
			Message:  testMessage(s.MessagePrefix),
			Volume:   r.Volume,
			Cache:    r.Cache,
			Language: r.Language,
			Options:  r.Options,
		})
	}
	return tests, nil
}

func testMessage(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = settings.DefaultMessagePrefix
	}
	return prefix + ", this is a test notification."
}

// runVoiceTests sends the requests in order and stops at the first failure.
func runVoiceTests(b Backend, tests []models.VoiceTest) tea.Cmd {
	return func() tea.Msg {
		for _, test := range tests {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			err := b.TestVoice(ctx, test)
			cancel()
			if err != nil {
				return VoiceTestFailMsg{DeviceID: test.DeviceID, Err: err}
			}
		}
		return VoiceTestCompleteMsg{Devices: len(tests)}
	}
}
