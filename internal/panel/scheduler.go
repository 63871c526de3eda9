package panel

import "time"

const DefaultRefreshInterval = 15 * time.Second

// Refresh lists what one scheduler tick fetches.
type Refresh struct {
	Accounts bool
	Detail   *Ticket
}

// PlanRefresh always refreshes the account list and, while a details view is
// open, the selected account's detail record.
func (c *Controller) PlanRefresh() Refresh {
	r := Refresh{Accounts: true}
	if t, ok := c.RefreshDetail(); ok {
		r.Detail = &t
	}
	return r
}

// Interval returns d, or the default when d is not positive.
func Interval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultRefreshInterval
	}
	return d
}
