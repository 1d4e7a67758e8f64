// Package core provides the HTTP chassis for the case-event callback API.
// It builds a chi router with the cross-cutting concerns -- panic recovery,
// request correlation, structured logging, service authentication, and error
// formatting -- applied before requests reach domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

// Server holds the chassis dependencies. Handlers are mounted through
// RouteRegistrars so the entry point controls registration without an import
// cycle between core and handler packages.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Verifier  types.TokenVerifier

	// HealthProbes are checked by GET /health. Each probe covers one
	// critical dependency.
	HealthProbes []HealthProbe

	// RouteRegistrars mount domain handlers inside the authenticated group.
	RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer validates the chassis dependencies and prepares the router. The
// caller mounts routes afterwards via MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger, verifier types.TokenVerifier) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		Verifier:  verifier,
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler for ListenAndServe or the
// Lambda proxy adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for tests and route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server-held resources. Closable probes (the database
// pool) are closed here.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")
	for _, probe := range s.HealthProbes {
		if closer, ok := probe.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	s.Logger.Info("server shutdown complete")
	return nil
}
