/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests

SECURITY NOTE:
  No authentication middleware. The admin routes in particular must be
  gated at the network layer in any real deployment.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/loyalty", func(r chi.Router) {
		r.Get("/points/{userId}", h.GetPoints)
		r.Get("/accounts/{userId}", h.GetAccount)
		r.Get("/accounts/{userId}/history", h.GetHistory)
		r.Post("/events", h.IngestEvents)
		r.Post("/redeem", h.Redeem)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Put("/accounts/{userId}/tier", h.SetTier)
		r.Delete("/accounts/{userId}", h.DeleteAccount)
		r.Post("/seed", h.SeedDemoData)
	})

	return r
}
