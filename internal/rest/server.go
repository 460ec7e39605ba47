// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyauth.
//
// go-keyauth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package rest hosts the enforcement engine behind an HTTP API. The engine
// itself knows nothing about the transport; this package is the wire framing
// the core treats as an external collaborator.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-keyauth/internal/config"
	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
	"github.com/jeremyhahn/go-keyauth/pkg/logging"
	"github.com/jeremyhahn/go-keyauth/pkg/metrics"
	"github.com/jeremyhahn/go-keyauth/pkg/ratelimit"
)

// Server hosts the authorization decision API.
type Server struct {
	server   *http.Server
	enforcer *enforcement.Enforcer
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
	cfg      *config.Config
	version  string
}

// Config holds REST server construction parameters.
type Config struct {
	// Config is the loaded service configuration.
	Config *config.Config

	// Enforcer is the decision engine to host. Required.
	Enforcer *enforcement.Enforcer

	// Logger receives request and lifecycle records.
	Logger *logging.Logger

	// Version is reported by the health endpoint.
	Version string
}

// NewServer creates the REST server and wires its middleware chain.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("rest: config is required")
	}
	if cfg.Enforcer == nil {
		return nil, fmt.Errorf("rest: enforcer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		enforcer: cfg.Enforcer,
		logger:   logger.WithComponent("rest"),
		cfg:      cfg.Config,
		version:  version,
	}

	s.limiter = ratelimit.New(&ratelimit.Config{
		Enabled:           cfg.Config.RateLimit.Enabled,
		RequestsPerMinute: cfg.Config.RateLimit.RequestsPerMin,
		Burst:             cfg.Config.RateLimit.Burst,
	})

	r := chi.NewRouter()
	r.Use(CorrelationMiddleware)
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.Middleware)
	if s.limiter.IsEnabled() {
		r.Use(ratelimit.Middleware(s.limiter))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware(&cfg.Config.Auth))
			r.Post("/authorize", s.handleAuthorize)
			r.Post("/keyid", s.handleKeyID)
			r.Get("/stats", s.handleStats)
		})
	})

	if cfg.Config.Metrics.Enabled {
		path := cfg.Config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Config.Server.Host, cfg.Config.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("starting REST server",
		"addr", s.server.Addr,
		"tls", s.cfg.TLS.Enabled)

	var err error
	if s.cfg.TLS.Enabled {
		err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest: server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and the rate limiter's cleanup worker.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
