package tui

import (
	"fmt"
	"strings"
	"time"

	"eatsdash/internal/client"
	"eatsdash/internal/config"
	"eatsdash/internal/models"
	"eatsdash/internal/panel"
	"eatsdash/internal/settings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const statusTimeout = 3 * time.Second

// historyRecheck is how long to wait before asking again for history that
// came from the backend's cache while it refreshes in the background.
const historyRecheck = 5 * time.Second

type Options struct {
	Backend         Backend
	Home            *models.Coordinate
	RefreshInterval time.Duration
	Debounce        config.Debounce
	Logger          *zap.Logger
	// SetupHint is shown on the instructions screen, e.g. where the backend
	// expects new accounts to be linked.
	SetupHint string
}

type App struct {
	backend   Backend
	ctrl      *panel.Controller
	debounce  *settings.Debouncer
	delays    config.Debounce
	refresh   time.Duration
	logger    *zap.Logger
	setupHint string

	width  int
	height int

	cursor  int
	loaded  bool
	offline bool
	details detailsScreen
	spinner spinner.Model

	statusMsg     string
	statusIsError bool
	statusTTL     time.Duration
}

type historyRecheckMsg struct {
	Ticket panel.Ticket
}

func NewApp(opts Options) App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	return App{
		backend:   opts.Backend,
		ctrl:      panel.NewController(opts.Home),
		debounce:  settings.NewDebouncer(),
		delays:    opts.Debounce,
		refresh:   panel.Interval(opts.RefreshInterval),
		logger:    logger,
		setupHint: opts.SetupHint,
		details:   newDetailsScreen(),
		spinner:   sp,
		statusTTL: statusTimeout,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		fetchAccounts(a.backend),
		tick(a.refresh),
		a.spinner.Tick,
	)
}

func (a App) delay(f field) time.Duration {
	var d time.Duration
	switch f {
	case fieldLanguage:
		d = a.delays.Language
	case fieldOptions:
		d = a.delays.Options
	default:
		d = a.delays.Prefix
	}
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	return d
}

func (a *App) setStatus(message string, isError bool) tea.Cmd {
	a.statusMsg = message
	a.statusIsError = isError
	return clearStatusAfter(a.statusTTL)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		cmd := a.handleKey(msg)
		return a, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case TickMsg:
		plan := a.ctrl.PlanRefresh()
		cmds := []tea.Cmd{tick(a.refresh)}
		if plan.Accounts {
			cmds = append(cmds, fetchAccounts(a.backend))
		}
		if plan.Detail != nil {
			cmds = append(cmds, fetchDetail(a.backend, *plan.Detail))
		}
		return a, tea.Batch(cmds...)

	case AccountsLoadedMsg:
		a.ctrl.SetAccounts(msg.List)
		a.loaded = true
		a.offline = false
		if n := len(msg.List.Accounts); a.cursor >= n {
			a.cursor = max(n-1, 0)
		}
		return a, nil

	case AccountsFailMsg:
		a.logger.Warn("account list fetch failed", zap.Error(msg.Err))
		a.offline = true
		return a, nil

	case DetailLoadedMsg:
		applied, first := a.ctrl.ApplyDetail(msg.Ticket, msg.Detail)
		if !applied || !first {
			return a, nil
		}
		cmd := a.startSession(msg.Ticket)
		return a, cmd

	case DetailFailMsg:
		a.logger.Warn("account detail fetch failed",
			zap.String("entry_id", msg.Ticket.AccountID), zap.Error(msg.Err))
		return a, nil

	case SessionLoadedMsg:
		a.applySession(msg)
		return a, nil

	case SettingsLoadedMsg:
		a.ctrl.ApplySettings(msg.Ticket, msg.Settings)
		return a, nil

	case SettingsFailMsg:
		a.logger.Warn("settings fetch failed",
			zap.String("entry_id", msg.Ticket.AccountID), zap.Error(msg.Err))
		return a, nil

	case SettingsSavedMsg:
		// The stored document is the sanitized form; adopt it unless the
		// user has written again since.
		a.ctrl.ApplySettings(msg.Ticket, msg.Settings)
		return a, nil

	case SettingsSaveFailMsg:
		a.logger.Error("settings save failed",
			zap.String("entry_id", msg.Ticket.AccountID), zap.Error(msg.Err))
		cmds := []tea.Cmd{a.setStatus("Failed to save settings: "+msg.Err.Error(), true)}
		if a.ctrl.LatestWrite(msg.Ticket) {
			if t, ok := a.ctrl.FetchSettings(); ok {
				cmds = append(cmds, fetchSettings(a.backend, t))
			}
		}
		return a, tea.Batch(cmds...)

	case HistoryLoadedMsg:
		if !a.ctrl.Current(msg.Ticket) {
			return a, nil
		}
		sess := a.ctrl.Session()
		h := msg.History
		sess.History = &h
		sess.HistoryLoading = false
		if h.FromCache && !msg.Recheck {
			t := msg.Ticket
			return a, tea.Tick(historyRecheck, func(time.Time) tea.Msg {
				return historyRecheckMsg{Ticket: t}
			})
		}
		return a, nil

	case historyRecheckMsg:
		if !a.ctrl.Current(msg.Ticket) {
			return a, nil
		}
		return a, fetchHistoryAgain(a.backend, msg.Ticket)

	case HistoryFailMsg:
		a.logger.Warn("history fetch failed",
			zap.String("entry_id", msg.Ticket.AccountID), zap.Error(msg.Err))
		if a.ctrl.Current(msg.Ticket) {
			a.ctrl.Session().HistoryLoading = false
		}
		return a, nil

	case DeleteCompleteMsg:
		if a.ctrl.Selected() == msg.EntryID {
			a.leaveDetails()
		}
		a.ctrl.Deleted(msg.EntryID)
		if n := len(a.ctrl.Accounts().Accounts); a.cursor >= n {
			a.cursor = max(n-1, 0)
		}
		cmd := tea.Batch(a.setStatus("Account deleted", false), fetchAccounts(a.backend))
		return a, cmd

	case DeleteFailMsg:
		a.logger.Error("account delete failed", zap.String("entry_id", msg.EntryID), zap.Error(msg.Err))
		cmd := a.setStatus("Failed to delete account: "+msg.Err.Error(), true)
		return a, cmd

	case VoiceTestCompleteMsg:
		cmd := a.setStatus(fmt.Sprintf("Test sent to %d media player(s)", msg.Devices), false)
		return a, cmd

	case VoiceTestFailMsg:
		a.logger.Error("voice test failed", zap.String("device", msg.DeviceID), zap.Error(msg.Err))
		cmd := a.setStatus("Test failed on "+msg.DeviceID+": "+msg.Err.Error(), true)
		return a, cmd

	case debounceMsg:
		cmd := a.flushDebounced(msg)
		return a, cmd

	case StatusMsg:
		cmd := a.setStatus(msg.Message, msg.IsError)
		return a, cmd

	case ClearStatusMsg:
		a.statusMsg = ""
		a.statusIsError = false
		return a, nil
	}
	return a, nil
}

// startSession fires the fetches the details view needs once the first
// authoritative record is in.
func (a *App) startSession(t panel.Ticket) tea.Cmd {
	st, ok := a.ctrl.FetchSettings()
	if !ok {
		return nil
	}
	a.ctrl.Session().HistoryLoading = true
	return tea.Batch(loadSession(a.backend, st), fetchHistory(a.backend, t))
}

func (a *App) applySession(msg SessionLoadedMsg) {
	if !a.ctrl.Current(msg.Ticket.Ticket) {
		return
	}
	sess := a.ctrl.Session()
	id := zap.String("entry_id", msg.Ticket.AccountID)

	loaded := settings.Defaults()
	if msg.SettingsErr != nil {
		a.logger.Warn("settings fetch failed, using defaults", id, zap.Error(msg.SettingsErr))
	} else {
		loaded = *msg.Settings
	}
	// SettingsLoaded is only set by an applied document.
	if !a.ctrl.ApplySettings(msg.Ticket, loaded) {
		a.logger.Debug("stale settings dropped", id)
	}

	if msg.CatalogErr != nil {
		a.logger.Warn("entity catalogue fetch failed", zap.Error(msg.CatalogErr))
	} else {
		sess.Catalog = *msg.Catalog
	}
	if msg.AutomationsErr != nil {
		a.logger.Warn("automation list fetch failed", zap.Error(msg.AutomationsErr))
	} else {
		sess.Automations = msg.Automations
	}
	switch {
	case msg.ProfileErr == nil:
		sess.Profile = msg.Profile
	case client.IsNotFound(msg.ProfileErr):
		a.logger.Debug("no profile stored", id)
	default:
		a.logger.Warn("profile fetch failed", id, zap.Error(msg.ProfileErr))
	}
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.ctrl.View() {
	case panel.ViewInstructions:
		return a.updateInstructionsKey(msg)
	case panel.ViewDetails:
		return a.updateDetailsKey(msg)
	}
	return a.updateMainKey(msg)
}

func (a *App) updateMainKey(msg tea.KeyMsg) tea.Cmd {
	accounts := a.ctrl.Accounts().Accounts
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Down):
		if a.cursor < len(accounts)-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Refresh):
		return fetchAccounts(a.backend)
	case key.Matches(msg, keys.Add):
		a.ctrl.ShowInstructions()
	case key.Matches(msg, keys.Open):
		if a.cursor >= len(accounts) {
			return nil
		}
		t, ok := a.ctrl.Select(accounts[a.cursor].EntryID)
		if !ok {
			return nil
		}
		a.details = newDetailsScreen()
		return fetchDetail(a.backend, t)
	}
	return nil
}

func (a *App) updateInstructionsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		a.ctrl.CancelInstructions()
	case key.Matches(msg, keys.Open):
		a.ctrl.ContinueInstructions()
		return a.setStatus("Finish linking the account in the backend, then press r to refresh.", false)
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	}
	return nil
}

func (a App) View() string {
	switch a.ctrl.View() {
	case panel.ViewInstructions:
		return a.renderInstructions()
	case panel.ViewDetails:
		return a.renderDetails()
	}
	return a.renderMain()
}

func (a App) renderMain() string {
	var b strings.Builder
	b.WriteString(logoStyle.Render(logo) + "\n")

	accounts := a.ctrl.Accounts().Accounts
	sub := fmt.Sprintf("%d account(s)", len(accounts))
	if a.offline {
		sub += "  " + errorStyle.Render("● backend unreachable")
	}
	b.WriteString(subtitleStyle.Render(sub) + "\n\n")

	switch {
	case !a.loaded && !a.offline:
		b.WriteString(a.spinner.View() + " Loading accounts…\n")
	case len(accounts) == 0:
		b.WriteString(mutedStyle.Render("No accounts linked yet. Press a to add one.") + "\n")
	}

	home := a.ctrl.Home()
	for i, acc := range accounts {
		header := renderAccountHeader(acc, home)
		if i == a.cursor {
			header = selectedStyle.Render("›") + " " + header
		} else {
			header = "  " + header
		}
		b.WriteString(header + "\n")
		b.WriteString(renderAccountCards(acc, home, i == a.cursor) + "\n")
	}

	b.WriteString(helpLine(keys.Up, keys.Down, keys.Open, keys.Add, keys.Refresh, keys.Quit))
	b.WriteString(a.renderStatus())
	return b.String()
}

func (a App) renderInstructions() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add an account") + "\n")
	steps := []string{
		"1. Sign in to the delivery service on the backend host.",
		"2. Link the signed-in account in the backend's account setup.",
		"3. Return here; the new account shows up on the next refresh.",
	}
	body := strings.Join(steps, "\n")
	if a.setupHint != "" {
		body += "\n\n" + mutedStyle.Render(a.setupHint)
	}
	b.WriteString(boxStyle.Render(body) + "\n")
	b.WriteString(helpLine(keys.Open, keys.Back))
	return b.String()
}

func (a App) renderStatus() string {
	if a.statusMsg == "" {
		return ""
	}
	if a.statusIsError {
		return "\n" + errorStyle.Render(a.statusMsg)
	}
	return "\n" + successStyle.Render(a.statusMsg)
}
