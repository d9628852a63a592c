// Package core provides the API chassis for the SafeWalk service: a chi
// router with the cross-cutting middleware chain (panic recovery, request
// timeouts, correlation IDs, structured request logging), JSON response
// envelopes, and the health check endpoint.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safewalk/internal/config"
)

// RouteRegistrar mounts a group of domain handler routes onto the router.
// The indirection keeps core free of imports on handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the HTTP chassis dependencies, allowing injection
// during testing and distinct configuration per environment.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	HealthProbes []HealthProbe

	// Registrars holds the domain route groups mounted under /api.
	Registrars []RouteRegistrar

	router *chi.Mux
}

// NewServer initializes the chassis with a fail-fast nil check on its
// critical dependencies. The caller mounts routes afterwards via
// MountRoutes; the separation lets tests customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// MountRoutes registers the global middleware chain, the /api route
// groups, and the health endpoint. Middleware order matters: Recoverer
// is outermost so it catches panics from everything below it.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.Config.Server.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Route("/api", func(r chi.Router) {
		for _, registrar := range s.Registrars {
			registrar(r)
		}
	})

	s.router.Get("/health", s.HandleHealth)
}

// Handler returns the http.Handler for use by http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown performs a graceful termination of server-owned resources.
func (s *Server) Shutdown(_ context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
