// Package notify turns consecutive account snapshots into voice
// announcements and proximity automation triggers.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"eatsdash/internal/geo"
	"eatsdash/internal/models"
	"eatsdash/internal/settings"

	"go.uber.org/zap"
)

type accountState struct {
	prev         *models.AccountSnapshot
	lastInterval time.Time
	triggered    map[string]bool
}

// Outcome is what one Process call decided.
type Outcome struct {
	Announcements []Announcement
	Triggered     []string
}

type Engine struct {
	notifier Notifier
	logger   *zap.Logger
	home     *models.Coordinate
	now      func() time.Time

	mu       sync.Mutex
	accounts map[string]*accountState
}

func NewEngine(notifier Notifier, home *models.Coordinate, logger *zap.Logger) *Engine {
	return &Engine{
		notifier: notifier,
		logger:   logger,
		home:     home,
		now:      time.Now,
		accounts: make(map[string]*accountState),
	}
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Forget drops everything remembered about an account.
func (e *Engine) Forget(entryID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.accounts, entryID)
}

// Process compares snap with the previous snapshot of the same account,
// delivers whatever it decided through the notifier and returns it. The first
// snapshot of an account only sets the baseline.
func (e *Engine) Process(ctx context.Context, s models.NotificationSettings, snap models.AccountSnapshot) Outcome {
	e.mu.Lock()
	st, ok := e.accounts[snap.EntryID]
	if !ok {
		st = &accountState{triggered: make(map[string]bool)}
		e.accounts[snap.EntryID] = st
	}
	prev := st.prev
	cur := snap
	st.prev = &cur

	var out Outcome
	if prev != nil {
		out.Announcements = e.announcements(st, s, *prev, snap)
	}
	out.Triggered = e.proximity(st, s, snap)
	e.mu.Unlock()

	for _, a := range out.Announcements {
		if err := e.notifier.Announce(ctx, a); err != nil {
			e.logger.Warn("announce failed", zap.String("entry_id", a.EntryID), zap.String("device", a.DeviceID), zap.Error(err))
		}
	}
	for _, ref := range out.Triggered {
		if err := e.notifier.TriggerAutomation(ctx, ref); err != nil {
			e.logger.Warn("automation trigger failed", zap.String("entry_id", snap.EntryID), zap.String("automation", ref), zap.Error(err))
		}
	}
	return out
}

func (e *Engine) announcements(st *accountState, s models.NotificationSettings, prev, cur models.AccountSnapshot) []Announcement {
	prevOrder := orderOf(prev)
	curOrder := orderOf(cur)
	hadDriver := prevOrder.HasDriver()
	hasDriver := curOrder.HasDriver()

	s = settings.Normalize(s)
	now := e.now()
	interval := time.Duration(s.IntervalMinutes) * time.Minute

	var events []Event
	if !prev.Active && cur.Active {
		if r := strings.TrimSpace(curOrder.RestaurantName); r != "" && r != models.NoRestaurant && r != models.Unknown {
			events = append(events, EventNewOrder)
		}
	}
	if !hadDriver && hasDriver {
		events = append(events, EventDriverAssigned)
		if s.IntervalEnabled {
			st.lastInterval = now
		}
	}
	if hadDriver && !hasDriver {
		st.lastInterval = time.Time{}
		clear(st.triggered)
	}
	if cur.Active && curOrder.OrderStatus != "" && curOrder.OrderStatus != prevOrder.OrderStatus {
		events = append(events, EventStatusChange)
	}
	if s.IntervalEnabled && hasDriver {
		switch {
		case st.lastInterval.IsZero():
			st.lastInterval = now
		case now.Sub(st.lastInterval) >= interval:
			events = append(events, EventIntervalUpdate)
			st.lastInterval = now
		}
	}

	if !s.Enabled || len(s.Devices) == 0 {
		return nil
	}

	var out []Announcement
	for _, ev := range events {
		msg := BuildMessage(s.MessagePrefix, cur.AccountName, curOrder, ev)
		if msg == "" {
			continue
		}
		for _, device := range s.Devices {
			out = append(out, Announcement{
				EntryID:  cur.EntryID,
				Event:    ev,
				DeviceID: device,
				Message:  msg,
				Voice:    settings.Resolve(s, device),
			})
		}
	}
	return out
}

// proximity fires the configured automation once per order when its driver
// comes within the trigger distance, and re-arms once the driver is more
// than the rearm margin beyond it.
func (e *Engine) proximity(st *accountState, s models.NotificationSettings, snap models.AccountSnapshot) []string {
	if !settings.ProximityReady(s) || e.home == nil {
		if !orderOf(snap).HasDriver() {
			clear(st.triggered)
		}
		return nil
	}
	ref := strings.TrimSpace(s.ProximityAutomation)
	trigger := float64(settings.ClampProximity(s.ProximityDistanceFeet))
	rearm := trigger + settings.ProximityRearmMarginFeet

	var fired []string
	present := make(map[string]bool, len(snap.Orders))
	for _, o := range snap.Orders {
		key := o.Key()
		if key == "" {
			continue
		}
		present[key] = true
		if !o.HasDriver() {
			continue
		}
		feet, ok := geo.DistanceFeet(o.DriverLocation.Coordinate(), e.home)
		if !ok {
			continue
		}
		switch {
		case feet > rearm:
			delete(st.triggered, key)
		case feet <= trigger && !st.triggered[key]:
			st.triggered[key] = true
			e.logger.Info("driver nearby", zap.String("entry_id", snap.EntryID), zap.String("order", key), zap.Float64("feet", feet))
			fired = append(fired, ref)
		}
	}
	for key := range st.triggered {
		if !present[key] {
			delete(st.triggered, key)
		}
	}
	return fired
}

func orderOf(a models.AccountSnapshot) models.OrderSnapshot {
	if o := a.PrimaryOrder(); o != nil {
		return *o
	}
	return models.OrderSnapshot{DriverName: a.DriverName, OrderStatus: a.OrderStatus, RestaurantName: a.RestaurantName}
}
