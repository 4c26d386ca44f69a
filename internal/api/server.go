// Package api serves the catalog's diagnostics endpoints: Prometheus
// metrics, liveness and readiness.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger checks that the store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// SyncStatus reports index work not yet applied.
type SyncStatus interface {
	Pending() int
}

// Server holds dependencies for the diagnostics handlers.
type Server struct {
	store    Pinger
	index    DocumentCounter
	sync     SyncStatus
	registry *prometheus.Registry
	router   *chi.Mux
	logger   *slog.Logger
}

// NewServer creates the diagnostics handler with all routes configured.
// A nil registry disables /metrics.
func NewServer(store Pinger, index DocumentCounter, sync SyncStatus, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:    store,
		index:    index,
		sync:     sync,
		registry: registry,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleLiveness)
	s.router.Get("/readyz", s.handleReadiness)

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			Registry:          s.registry,
			EnableOpenMetrics: true,
		}))
	}
}
