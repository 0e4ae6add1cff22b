// Package server mounts the core and module HTTP routes and runs the HTTP
// listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/metrics"
	"github.com/HerbHall/showcase/internal/registry"
	"github.com/HerbHall/showcase/internal/version"
)

// Gate wraps admin-only handlers.
type Gate func(http.Handler) http.Handler

// HealthCheck reports whether a core dependency, such as the database, is
// reachable.
type HealthCheck func(ctx context.Context) error

// Server is the showcase HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *registry.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
	adminGate  Gate
	metrics    *metrics.Metrics
	checks     map[string]HealthCheck
	core       []coreRoute
}

type coreRoute struct {
	pattern string
	handler http.Handler
	admin   bool
}

// Option configures a Server.
type Option func(*Server)

// WithAdminGate sets the middleware protecting admin routes. Without one,
// admin routes answer 401.
func WithAdminGate(g Gate) Option {
	return func(s *Server) { s.adminGate = g }
}

// WithMetrics enables request metrics and mounts GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealthCheck adds a named check to GET /api/v1/health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// WithTimeouts overrides the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.httpServer.ReadTimeout = read
		s.httpServer.WriteTimeout = write
	}
}

// WithRoute mounts a handler outside the module namespace, such as the
// auth endpoints. pattern is a full ServeMux pattern.
func WithRoute(pattern string, handler http.Handler, admin bool) Option {
	return func(s *Server) {
		s.core = append(s.core, coreRoute{pattern: pattern, handler: handler, admin: admin})
	}
}

// New creates a Server and mounts every route.
func New(addr string, reg *registry.Registry, logger *zap.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		registry: reg,
		logger:   logger,
		mux:      mux,
		checks:   make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.adminGate == nil {
		s.adminGate = denyAll
	}

	s.registerCoreRoutes()
	s.mountPluginRoutes()
	s.httpServer.Handler = s.middleware(mux)

	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/modules", s.handleModules)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	for _, r := range s.core {
		h := r.handler
		if r.admin {
			h = s.adminGate(h)
		}
		s.mux.Handle(r.pattern, h)
	}
}

// mountPluginRoutes registers all module routes under /api/v1/{module}.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	names := make([]string, 0, len(allRoutes))
	for name := range allRoutes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, route := range allRoutes[name] {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, name, route.Path)
			var h http.Handler = route.Handler
			if route.Admin {
				h = s.adminGate(h)
			}
			s.mux.Handle(pattern, h)
			s.logger.Debug("mounted route",
				zap.String("module", name),
				zap.String("pattern", pattern),
				zap.Bool("admin", route.Admin),
			)
		}
	}
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status  string                     `json:"status"`
	Service string                     `json:"service"`
	Version map[string]string          `json:"version"`
	Checks  map[string]string          `json:"checks,omitempty"`
	Modules map[string]moduleHealthDTO `json:"modules,omitempty"`
}

type moduleHealthDTO struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// handleHealth reports core checks and module health. Any failing core
// check makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Service: "showcase",
		Version: version.Map(),
		Checks:  make(map[string]string, len(s.checks)),
		Modules: make(map[string]moduleHealthDTO),
	}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	for name, h := range s.registry.Health(ctx) {
		resp.Modules[name] = moduleHealthDTO{Status: h.Status, Message: h.Message, Details: h.Details}
		if h.Status != "healthy" && resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	w.Header().Set("X-Showcase-Version", version.Short())
	WriteJSON(w, status, resp)
}

type moduleResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// handleModules returns the enabled modules.
func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	plugins := s.registry.All()
	info := make([]moduleResponse, 0, len(plugins))
	for _, p := range plugins {
		pi := p.Info()
		info = append(info, moduleResponse{
			Name:        pi.Name,
			Version:     pi.Version,
			Description: pi.Description,
		})
	}
	w.Header().Set("X-Showcase-Version", version.Short())
	WriteJSON(w, http.StatusOK, info)
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Unauthorized(w, "authentication required", r.URL.Path)
	})
}
