// Package web serves the datops operations over HTTP.
//
// Every operation has a JSON endpoint under /api whose body mirrors the CLI
// flags. Paths in requests are relative to the configured data root; a path
// that escapes it is rejected before any file is touched.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datops/internal/config"
	"github.com/JonMunkholm/datops/internal/core"
	mw "github.com/JonMunkholm/datops/internal/web/middleware"
)

// Server is the HTTP front end for a core.Service.
type Server struct {
	service *core.Service
	cfg     config.ServerConfig
	root    string
	router  *chi.Mux
	limiter *rateLimiter

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewServer builds the router. DataRoot is made absolute once here.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	root, err := filepath.Abs(cfg.Server.DataRoot)
	if err != nil {
		return nil, err
	}

	s := &Server{
		service: service,
		cfg:     cfg.Server,
		root:    root,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
	}
	s.setupMiddleware(cfg.Security)
	s.setupRoutes(cfg.Security)
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(sec config.SecurityConfig) {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(sec.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(sec config.SecurityConfig) {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&sec))

		r.Get("/report/compare", s.handleCompareReport)

		r.Route("/api", func(r chi.Router) {
			r.Get("/formats", s.handleFormats)
			r.Get("/history", s.handleHistory)

			r.Post("/inspect", s.handleInspect)
			r.Post("/convert", s.handleConvert)
			r.Post("/compare", s.handleCompare)
			r.Post("/merge", s.handleMerge)
			r.Post("/delete", s.handleDelete)
			r.Post("/select", s.handleSelect)
			r.Post("/replace-header", s.handleReplaceHeader)
		})
	})
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.server = srv
	s.mu.Unlock()

	slog.Info("server listening", "addr", addr, "data_root", s.root)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// the report page carries its own inline stylesheet and no scripts
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
