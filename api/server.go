/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the PWA frontend

ROUTE GROUPS:
  /api/beneficiaries/*   Beneficiary config, rates, events, reports

SECURITY NOTE:
  No authentication middleware here - auth lives in the hosting layer
  (reverse proxy / identity provider), out of scope for this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/beneficiaries", func(r chi.Router) {
			r.Post("/", h.CreateBeneficiary)
			r.Get("/{id}", h.GetBeneficiary)
			r.Post("/{id}/rates", h.CreateRateEntry)
			r.Post("/{id}/checkin", h.RecordCheckIn)
			r.Post("/{id}/checkout", h.RecordCheckOut)
			r.Get("/{id}/events", h.ListEvents)
			r.Get("/{id}/breakdown", h.GetBreakdown)
			r.Get("/{id}/breakdown.csv", h.GetBreakdownCSV)
		})
	})

	return r
}
