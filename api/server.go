/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Lightweight, context-based, RESTful route patterns.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware: the engine runs in a single trusted
  client context and all endpoints are public.

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

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", h.Ingest)

		r.Route("/selection", func(r chi.Router) {
			r.Post("/range", h.SetRange)
			r.Post("/buckets/{index}/toggle", h.ToggleBucket)
			r.Delete("/", h.ClearSelection)
		})

		r.Get("/advance", h.GetAdvance)
		r.Get("/offer", h.GetOffer)

		r.Route("/buckets", func(r chi.Router) {
			r.Get("/daily", h.GetDailyBuckets)
			r.Get("/weekly", h.GetWeeklyBuckets)
		})

		r.Get("/milestones", h.GetMilestones)
		r.Get("/celebrations", h.DrainCelebrations)
		r.Get("/orders", h.ListOrders)
	})

	// Prometheus metrics
	r.Method("GET", "/metrics", h.Metrics.Handler())

	return r
}
