// Package server is the eatsdash backend: it stores account snapshots and
// notification settings and answers the panel's requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"eatsdash/internal/history"
	"eatsdash/internal/models"
	"eatsdash/internal/notify"
	"eatsdash/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	APIVersion = "1"
	// mapDelta is the half-width in degrees of the detail map's bounding box.
	mapDelta = 0.01
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string

	store    *storage.Store
	history  history.Source
	notifier notify.Notifier
	engine   *notify.Engine
	home     *models.Coordinate
	log      *zap.Logger
	now      func() time.Time

	bg         sync.WaitGroup
	mu         sync.Mutex
	refreshing map[string]bool
}

type Options struct {
	Addr     string
	Store    *storage.Store
	History  history.Source
	Notifier notify.Notifier
	Home     *models.Coordinate
	Logger   *zap.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	src := opts.History
	if src == nil {
		src = storeHistory{opts.Store}
	}
	return &Server{
		addr:       opts.Addr,
		store:      opts.Store,
		history:    src,
		notifier:   notifier,
		engine:     notify.NewEngine(notifier, opts.Home, log),
		home:       opts.Home,
		log:        log,
		now:        time.Now,
		refreshing: make(map[string]bool),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": APIVersion})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Route("/accounts/{entryID}", func(r chi.Router) {
			r.Get("/", s.handleGetAccount)
			r.Delete("/", s.handleDeleteAccount)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Get("/history", s.handleGetHistory)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/snapshot", s.handlePutSnapshot)
		})
		r.Get("/entities", s.handleListEntities)
		r.Get("/automations", s.handleListAutomations)
		r.Post("/voice/test", s.handleVoiceTest)
	})
	return r
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", zap.Error(err))
		}
	}()

	s.log.Info("backend listening", zap.String("addr", listener.Addr().String()))
	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.bg.Wait()
	return err
}

// Port is the bound TCP port, 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type storeHistory struct {
	store *storage.Store
}

func (h storeHistory) PastOrders(ctx context.Context, entryID string) ([]models.PastOrder, error) {
	return h.store.PastOrders(entryID)
}
