// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"advisor-matching/internal/assignment"
	"advisor-matching/internal/common/config"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/matching"
	"advisor-matching/internal/matching/engine"
	"advisor-matching/pkg/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req engine.Request) (*engine.Response, error)
}

type MatchReader interface {
	ListForFounder(ctx context.Context, founderID string, limit int) ([]matching.MatchResult, error)
}

type AssignmentCreator interface {
	Create(ctx context.Context, req assignment.CreateRequest) (*assignment.Assignment, error)
}

type RunStore interface {
	LatestRun(ctx context.Context) (*engine.BatchResult, error)
	RequestCancel(ctx context.Context) error
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps groups what the handlers call into.
type Deps struct {
	Engine      Dispatcher
	Matches     MatchReader
	Assignments AssignmentCreator
	Runs        RunStore
	Registry    *registry.ActivityRegistry
	Checks      []Check
	DefaultTopN int
}

// Server is the HTTP API.
type Server struct {
	config config.HTTPConfig
	deps   Deps
	router *chi.Mux
	server *http.Server
	logger logger.Logger
}

func NewServer(cfg config.HTTPConfig, deps Deps, log logger.Logger) *Server {
	if deps.Registry == nil {
		deps.Registry = registry.Builtin()
	}
	if deps.DefaultTopN <= 0 {
		deps.DefaultTopN = 20
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
	s.setupRouter()
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       millis(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout:      millis(cfg.WriteTimeout, 0),
	}
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/matches", s.handleCalculateMatches)
		r.Get("/founders/{founderId}/matches", s.handleListFounderMatches)
		r.Post("/assignments", s.handleCreateAssignment)

		r.Route("/batch-runs", func(r chi.Router) {
			r.Get("/latest", s.handleLatestRun)
			r.Post("/cancel", s.handleCancelRun)
		})
	})

	s.router = r
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Start serves until Shutdown; it returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Address})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, millis(s.config.ShutdownTimeout, 15*time.Second))
	defer cancel()
	return s.server.Shutdown(ctx)
}
