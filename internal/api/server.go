// Package api exposes the inbox cache over HTTP, including the event stream
// that bridges the in-process broadcast bus to remote views.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tempvault/tempvault/internal/broadcast"
	"github.com/tempvault/tempvault/internal/config"
	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/scheduler"
	"github.com/tempvault/tempvault/internal/store"
)

// MessageStore defines the store operations the API needs.
type MessageStore interface {
	Get(id string) (*model.Message, error)
	Count(f filter.State, section model.Section) (int, error)
	Page(limit, offset int, f filter.State, section model.Section) ([]model.Message, error)
	Accounts() ([]model.Account, error)
	Export() (*store.ExportDoc, error)
	Import(data []byte) (int, error)
}

// InboxView defines the session operations the API delegates to its view.
type InboxView interface {
	OpenMessage(id string) (*model.Message, error)
	ToggleStar(id string) (bool, error)
	MarkAllRead() (int, error)
	ClearRead() (int, error)
	Search(query string) ([]model.Message, error)
	SwitchAccount(email string) error
	SetDarkMode(on bool) error
	DarkMode() bool
	Email() string
	Stats() (*store.Stats, error)
	RecentActivity(n int) ([]store.Activity, error)
	Refresh() error
}

// InboxSyncer performs on-demand sync passes.
type InboxSyncer interface {
	Sync(ctx context.Context, email string) (int, error)
}

// SyncScheduler defines the scheduler operations the API needs.
type SyncScheduler interface {
	Status() []scheduler.AccountStatus
}

// Server is the HTTP API server.
type Server struct {
	cfg    *config.Config
	store  MessageStore
	view   InboxView
	syncer InboxSyncer
	sched  SyncScheduler
	bus    *broadcast.Bus
	logger *slog.Logger
	router chi.Router
	server *http.Server
}

// NewServer assembles the server. sched may be nil when no schedules are
// configured.
func NewServer(cfg *config.Config, st MessageStore, v InboxView, syncer InboxSyncer, sched SyncScheduler, bus *broadcast.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		store:  st,
		view:   v,
		syncer: syncer,
		sched:  sched,
		bus:    bus,
		logger: logger,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", s.handleListMessages)
		r.Get("/messages/{id}", s.handleGetMessage)
		r.Post("/messages/{id}/open", s.handleOpenMessage)
		r.Post("/messages/{id}/star", s.handleToggleStar)
		r.Post("/messages/read-all", s.handleMarkAllRead)
		r.Post("/messages/clear-read", s.handleClearRead)

		r.Get("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
		r.Get("/activity", s.handleActivity)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts/switch", s.handleSwitchAccount)
		r.Post("/prefs/dark-mode", s.handleDarkMode)

		r.Post("/sync", s.handleSync)
		r.Get("/scheduler/status", s.handleSchedulerStatus)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/events", s.handleEvents)
	})

	return r
}

// Start begins listening on the configured port. Blocks until the listener
// fails or the server is shut down.
func (s *Server) Start() error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.cfg.Server.APIPort))

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No write timeout; /api/events streams indefinitely.
		IdleTimeout: 120 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
