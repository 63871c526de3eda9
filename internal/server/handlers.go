package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"eatsdash/internal/history"
	"eatsdash/internal/models"
	"eatsdash/internal/notify"
	"eatsdash/internal/settings"
	"eatsdash/internal/status"
	"eatsdash/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const historyRefreshTimeout = 30 * time.Second

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts()
	if err != nil {
		s.log.Error("list accounts", zap.Error(err))
		writeStoreError(w, err, "accounts")
		return
	}
	out := make([]models.AccountSnapshot, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, acc.WithPrimaryFields())
	}
	writeJSON(w, http.StatusOK, models.AccountList{Accounts: out, Version: APIVersion})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	acc, err := s.store.GetAccount(entryID)
	if err != nil {
		writeStoreError(w, err, "account")
		return
	}
	writeJSON(w, http.StatusOK, s.detail(*acc))
}

// detail builds the detail record. Without a live driver fix the home
// position stands in for the driver location.
func (s *Server) detail(acc models.AccountSnapshot) models.AccountDetail {
	acc = acc.WithPrimaryFields()
	d := models.AccountDetail{
		AccountSnapshot: acc,
		HomeLocation:    s.home,
	}
	order := acc.PrimaryOrder()
	if order != nil {
		d.DriverAssigned = order.HasDriver()
		d.OrderStatusDescription = order.OrderStatusDescription
	}
	if d.OrderStatusDescription == "" {
		d.OrderStatusDescription = acc.OrderStatus
	}
	d.TrackingActive = acc.Active && d.DriverAssigned && acc.DriverLocation.Coordinate() != nil

	if !d.TrackingActive && s.home != nil {
		lat, lon := s.home.Lat, s.home.Lon
		loc := &models.Location{Lat: &lat, Lon: &lon, Street: "—", Suburb: "—", Address: "—"}
		if acc.DriverLocation != nil {
			loc.Street, loc.Suburb, loc.Address = acc.DriverLocation.Street, acc.DriverLocation.Suburb, acc.DriverLocation.Address
		}
		d.DriverLocation = loc
	}
	d.MapURL = status.MapURL(status.MapCenter(order, s.home), mapDelta)
	return d
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if err := s.store.DeleteAccount(entryID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("delete account", zap.String("entry_id", entryID), zap.Error(err))
		}
		writeStoreError(w, err, "account")
		return
	}
	s.engine.Forget(entryID)
	if repo, ok := s.history.(interface {
		DeleteAccount(ctx context.Context, entryID string) error
	}); ok {
		if err := repo.DeleteAccount(r.Context(), entryID); err != nil {
			s.log.Warn("delete past orders", zap.String("entry_id", entryID), zap.Error(err))
		}
	}
	s.log.Info("account deleted", zap.String("entry_id", entryID))
	w.WriteHeader(http.StatusNoContent)
}

// settingsFor returns the stored document, or the defaults when none was
// ever saved.
func (s *Server) settingsFor(entryID string) (models.NotificationSettings, error) {
	stored, err := s.store.GetSettings(entryID)
	if errors.Is(err, storage.ErrNotFound) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return settings.Normalize(*stored), nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if _, err := s.store.GetAccount(entryID); err != nil {
		writeStoreError(w, err, "account")
		return
	}
	doc, err := s.settingsFor(entryID)
	if err != nil {
		writeStoreError(w, err, "settings")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if _, err := s.store.GetAccount(entryID); err != nil {
		writeStoreError(w, err, "account")
		return
	}
	var in models.NotificationSettings
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid settings document")
		return
	}
	doc := settings.Sanitize(in)
	if err := s.store.SaveSettings(entryID, doc); err != nil {
		s.log.Error("save settings", zap.String("entry_id", entryID), zap.Error(err))
		writeStoreError(w, err, "settings")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.store.GetEntities()
	if err != nil {
		writeStoreError(w, err, "entities")
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleListAutomations(w http.ResponseWriter, r *http.Request) {
	autos, err := s.store.GetAutomations()
	if err != nil {
		writeStoreError(w, err, "automations")
		return
	}
	writeJSON(w, http.StatusOK, models.AutomationList{Automations: autos})
}

func (s *Server) handleVoiceTest(w http.ResponseWriter, r *http.Request) {
	var in models.VoiceTest
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid test request")
		return
	}
	in.EngineID = strings.TrimSpace(in.EngineID)
	in.DeviceID = strings.TrimSpace(in.DeviceID)
	if in.EngineID == "" {
		writeError(w, http.StatusBadRequest, "missing_engine", "Please select a TTS engine first.")
		return
	}
	if in.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "missing_device", "Please select a media player first.")
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		in.Message = settings.DefaultMessagePrefix + ", this is a test."
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}

	err := s.notifier.Announce(r.Context(), notify.Announcement{
		Event:    notify.EventTest,
		DeviceID: in.DeviceID,
		Message:  strings.TrimSpace(in.Message),
		Voice: settings.Resolved{
			EngineID: in.EngineID,
			Cache:    in.Cache,
			Language: strings.TrimSpace(in.Language),
			Options:  in.Options,
			Volume:   settings.ClampVolume(in.Volume),
		},
	})
	if err != nil {
		s.log.Error("voice test", zap.String("request_id", in.RequestID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "announce_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "request_id": in.RequestID})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	p, err := s.store.GetProfile(entryID)
	if err != nil {
		writeStoreError(w, err, "profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutSnapshot ingests the latest poll result for an account. The
// previous snapshot is replaced wholesale after notifications are decided.
func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	var snap models.AccountSnapshot
	if err := decodeBody(r, &snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid snapshot")
		return
	}
	snap.EntryID = entryID
	if snap.ConnectionStatus == "" {
		snap.ConnectionStatus = models.ConnectionConnected
	}
	if snap.Orders == nil {
		snap.Orders = []models.OrderSnapshot{}
	}
	snap = snap.WithPrimaryFields()

	doc, err := s.settingsFor(entryID)
	if err != nil {
		writeStoreError(w, err, "settings")
		return
	}
	s.engine.Process(r.Context(), doc, snap)

	if err := s.store.SaveAccount(snap); err != nil {
		s.log.Error("save snapshot", zap.String("entry_id", entryID), zap.Error(err))
		writeStoreError(w, err, "account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	acc, err := s.store.GetAccount(entryID)
	if err != nil {
		writeStoreError(w, err, "account")
		return
	}

	if cached, err := s.store.GetCachedHistory(entryID); err == nil && len(cached.History.Orders) > 0 {
		s.refreshHistory(entryID, acc.TimeZone)
		h := cached.History
		h.FromCache = true
		writeJSON(w, http.StatusOK, h)
		return
	}

	h, err := s.buildHistory(r.Context(), entryID, acc.TimeZone)
	if err != nil {
		s.log.Warn("build history", zap.String("entry_id", entryID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) buildHistory(ctx context.Context, entryID, timeZone string) (models.OrderHistory, error) {
	orders, err := s.history.PastOrders(ctx, entryID)
	if err != nil {
		return models.OrderHistory{}, err
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		loc = time.UTC
	}
	now := s.now()
	h := history.Build(orders, history.CurrentYear(now, loc))
	if err := s.store.SaveCachedHistory(entryID, h, now); err != nil {
		s.log.Warn("cache history", zap.String("entry_id", entryID), zap.Error(err))
	}
	return h, nil
}

// refreshHistory rebuilds the cached history in the background. At most one
// refresh per account runs at a time.
func (s *Server) refreshHistory(entryID, timeZone string) {
	s.mu.Lock()
	if s.refreshing[entryID] {
		s.mu.Unlock()
		return
	}
	s.refreshing[entryID] = true
	s.mu.Unlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.refreshing, entryID)
			s.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), historyRefreshTimeout)
		defer cancel()
		if _, err := s.buildHistory(ctx, entryID, timeZone); err != nil {
			s.log.Debug("background history refresh failed", zap.String("entry_id", entryID), zap.Error(err))
		}
	}()
}
