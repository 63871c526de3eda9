// Package panel holds the navigation state of the dashboard and decides which
// asynchronous completions may still be applied. It does no I/O.
package panel

import (
	"eatsdash/internal/models"
	"eatsdash/internal/settings"
)

type View int

const (
	ViewMain View = iota
	ViewInstructions
	ViewDetails
)

func (v View) String() string {
	switch v {
	case ViewInstructions:
		return "instructions"
	case ViewDetails:
		return "details"
	}
	return "main"
}

// Ticket identifies one request made on behalf of the open account. A
// completion carrying a ticket from an earlier selection is ignored.
type Ticket struct {
	AccountID string
	Epoch     uint64
	Seq       uint64
}

// Session is the per-account state of the details view. It is created on
// selection and dropped on back or delete.
type Session struct {
	AccountID string
	Epoch     uint64

	Toggles        *settings.Toggles
	Settings       models.NotificationSettings
	SettingsLoaded bool
	Catalog        models.EntityCatalog
	Automations    []models.EntityRef
	Profile        *models.UserProfile
	History        *models.OrderHistory
	HistoryLoading bool
	AdvancedOpen   bool

	writes uint64
}

type Controller struct {
	view     View
	accounts models.AccountList
	home     *models.Coordinate

	detail      models.AccountDetail
	placeholder bool
	session     *Session

	epoch   uint64
	seq     uint64
	applied uint64
}

func NewController(home *models.Coordinate) *Controller {
	return &Controller{home: home}
}

func (c *Controller) View() View                   { return c.view }
func (c *Controller) Accounts() models.AccountList { return c.accounts }
func (c *Controller) Home() *models.Coordinate     { return c.home }
func (c *Controller) Session() *Session            { return c.session }
func (c *Controller) Detail() models.AccountDetail { return c.detail }
func (c *Controller) IsPlaceholder() bool          { return c.placeholder }

// Selected returns the open account id, or "" outside the details view.
func (c *Controller) Selected() string {
	if c.session == nil {
		return ""
	}
	return c.session.AccountID
}

// SetAccounts replaces the account list wholesale.
func (c *Controller) SetAccounts(list models.AccountList) {
	c.accounts = list
}

func (c *Controller) ShowInstructions() bool {
	if c.view != ViewMain {
		return false
	}
	c.view = ViewInstructions
	return true
}

func (c *Controller) CancelInstructions() bool {
	if c.view != ViewInstructions {
		return false
	}
	c.view = ViewMain
	return true
}

// ContinueInstructions hands control to the external account setup flow.
// The panel goes back to main so it is in a sane state when it resumes.
func (c *Controller) ContinueInstructions() bool {
	if c.view != ViewInstructions {
		return false
	}
	c.view = ViewMain
	return true
}

// Select opens the details view for entryID with a placeholder record and
// returns the ticket for the authoritative detail fetch.
func (c *Controller) Select(entryID string) (Ticket, bool) {
	if c.view != ViewMain || entryID == "" {
		return Ticket{}, false
	}
	c.epoch++
	c.applied = c.seq
	c.session = &Session{
		AccountID: entryID,
		Epoch:     c.epoch,
		Toggles:   settings.NewToggles(),
		Settings:  settings.Defaults(),
	}
	c.detail = Placeholder(c.accounts, entryID, c.home)
	c.placeholder = true
	c.view = ViewDetails
	return c.next(), true
}

// RefreshDetail returns a ticket for a scheduler-driven detail fetch.
func (c *Controller) RefreshDetail() (Ticket, bool) {
	if c.view != ViewDetails || c.session == nil {
		return Ticket{}, false
	}
	return c.next(), true
}

func (c *Controller) next() Ticket {
	c.seq++
	return Ticket{AccountID: c.session.AccountID, Epoch: c.session.Epoch, Seq: c.seq}
}

// Current reports whether t was issued for the session still open.
func (c *Controller) Current(t Ticket) bool {
	return c.session != nil && c.view == ViewDetails &&
		t.Epoch == c.session.Epoch && t.AccountID == c.session.AccountID
}

// ApplyDetail replaces the detail record if t is current and newer than the
// last record applied. first is true for the first authoritative record of
// the session, which is when the dependent fetches should start.
func (c *Controller) ApplyDetail(t Ticket, d models.AccountDetail) (applied, first bool) {
	if !c.Current(t) || t.Seq <= c.applied {
		return false, false
	}
	c.applied = t.Seq
	first = c.placeholder
	c.detail = d
	c.placeholder = false
	return true, first
}

// Back returns to main and discards the session.
func (c *Controller) Back() bool {
	if c.view == ViewInstructions {
		return c.CancelInstructions()
	}
	if c.view != ViewDetails {
		return false
	}
	c.leave()
	return true
}

// Deleted records that entryID was removed. The account is dropped from the
// list and, if it was open, the panel returns to main.
func (c *Controller) Deleted(entryID string) {
	kept := c.accounts.Accounts[:0:0]
	for _, a := range c.accounts.Accounts {
		if a.EntryID != entryID {
			kept = append(kept, a)
		}
	}
	c.accounts.Accounts = kept
	if c.Selected() == entryID {
		c.leave()
	}
}

func (c *Controller) leave() {
	c.epoch++
	c.session = nil
	c.detail = models.AccountDetail{}
	c.placeholder = false
	c.view = ViewMain
}

// SettingsTicket guards a settings round trip. Writes records how many local
// writes had been issued when the request started.
type SettingsTicket struct {
	Ticket
	Writes uint64
}

// WriteSettings optimistically replaces the local document and returns the
// ticket for the save call.
func (c *Controller) WriteSettings(next models.NotificationSettings) (SettingsTicket, bool) {
	if c.session == nil {
		return SettingsTicket{}, false
	}
	c.session.writes++
	c.session.Settings = next
	return c.settingsTicket(), true
}

// FetchSettings returns the ticket for a settings fetch.
func (c *Controller) FetchSettings() (SettingsTicket, bool) {
	if c.session == nil {
		return SettingsTicket{}, false
	}
	return c.settingsTicket(), true
}

func (c *Controller) settingsTicket() SettingsTicket {
	c.seq++
	return SettingsTicket{
		Ticket: Ticket{AccountID: c.session.AccountID, Epoch: c.session.Epoch, Seq: c.seq},
		Writes: c.session.writes,
	}
}

// ApplySettings stores a fetched document unless a local write was issued
// after the fetch started.
func (c *Controller) ApplySettings(t SettingsTicket, s models.NotificationSettings) bool {
	if !c.Current(t.Ticket) || t.Writes != c.session.writes {
		return false
	}
	c.session.Settings = settings.Normalize(s)
	c.session.SettingsLoaded = true
	return true
}

// LatestWrite reports whether t belongs to the most recent local write. Only
// a failure of that write needs reconciling.
func (c *Controller) LatestWrite(t SettingsTicket) bool {
	return c.Current(t.Ticket) && t.Writes == c.session.writes
}
