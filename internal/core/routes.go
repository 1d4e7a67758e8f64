package core

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// defaultRequestTimeout is kept below the Lambda hard timeout so handlers
// finish cleanly.
const defaultRequestTimeout = 29 * time.Second

// MountRoutes registers the middleware chain and routes.
//
// Ordering: Recoverer outermost so every panic is caught, then the request
// deadline, correlation id, and logging. The health endpoint stays outside
// the authenticated group; everything mounted through RouteRegistrars sits
// behind token verification.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		for _, registrar := range s.RouteRegistrars {
			registrar(r)
		}
	})
}
