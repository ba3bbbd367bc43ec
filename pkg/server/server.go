// Package server hosts the metrics exposition endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/telemetry/metrics"
)

// Config contains the HTTP server configuration.
type Config struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server serves the read-only scrape surface: GET /metrics renders the
// current registry snapshot in the Prometheus text format, and
// GET /healthz answers liveness probes. It shares no mutable state with
// the poller other than the registry itself.
type Server struct {
	config     Config
	httpServer *http.Server

	mu        sync.Mutex
	isRunning bool
}

// New creates a server over the given metrics registry.
func New(config Config, registry *metrics.Registry) *Server {
	if config.ListenAddress == "" {
		config.ListenAddress = ":8000"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 120 * time.Second
	}

	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:         config.ListenAddress,
			Handler:      newRouter(registry),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// newRouter builds the route table.
func newRouter(registry *metrics.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", registry.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	return r
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	slog.Info("metrics endpoint listening",
		"address", s.config.ListenAddress,
		"path", "/metrics",
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	slog.Info("shutting down metrics endpoint")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
