// Package server exposes the layout pipeline and per-viewer sessions over
// HTTP.
//
// Stateless endpoints take a full request (pathway, dimensions, expansion,
// viewport width) and return a layout document or a rendered artifact.
// Session endpoints keep the expansion state machine, the current node and
// the last posted DOM measurements on the server, so a thin browser client
// only reports clicks, sizes and resizes and fetches the resulting layout.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	POST   /api/v1/layout
//	POST   /api/v1/render
//	POST   /api/v1/sessions
//	GET    /api/v1/sessions/{id}
//	DELETE /api/v1/sessions/{id}
//	POST   /api/v1/sessions/{id}/click
//	PUT    /api/v1/sessions/{id}/dimensions
//	PUT    /api/v1/sessions/{id}/viewport
//	PUT    /api/v1/sessions/{id}/current
//	GET    /api/v1/sessions/{id}/layout
//	GET    /api/v1/sessions/{id}/svg
//
// Errors are JSON objects {"error": ..., "code": ...}. Structural pathway
// errors map to 422; SVG endpoints answer them with the fallback diagram.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/session"
	"github.com/matzehuels/pathwaygraph/pkg/source"
)

// Defaults for [Config].
const (
	DefaultMaxBodyBytes    = 4 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// Config wires the server's collaborators. Runner and Sessions are
// required; Source enables pathway_id lookups; Metrics is mounted at
// /metrics when set.
type Config struct {
	Runner     *pipeline.Runner
	Sessions   session.Store
	Source     source.Source
	Metrics    http.Handler
	Logger     *log.Logger
	SessionTTL time.Duration
	Engine     string // default engine for requests that name none

	MaxBodyBytes int64
}

// Server is the HTTP host.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	source   source.Source
	metrics  http.Handler
	logger   *log.Logger
	ttl      time.Duration
	engine   string
	maxBody  int64
	router   chi.Router
}

// New builds a server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("server: runner is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("server: session store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if cfg.Engine == "" {
		cfg.Engine = pipeline.DefaultEngine
	}
	if err := pipeline.ValidateEngine(cfg.Engine); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		source:   cfg.Source,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		ttl:      cfg.SessionTTL,
		engine:   cfg.Engine,
		maxBody:  cfg.MaxBodyBytes,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/click", s.handleClick)
			r.Put("/dimensions", s.handleDimensions)
			r.Put("/viewport", s.handleViewport)
			r.Put("/current", s.handleCurrent)
			r.Get("/layout", s.handleSessionLayout)
			r.Get("/svg", s.handleSessionSVG)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
