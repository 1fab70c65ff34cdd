package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the cross-cutting middleware the router mounts
// around the API routes. Nil fields are skipped.
type RouterOptions struct {
	Auth      func(http.Handler) http.Handler
	Logging   func(http.Handler) http.Handler
	Metrics   func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler

	// MetricsHandler, when set, is served unauthenticated at /metrics.
	MetricsHandler http.Handler
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates everything else to the Server handlers.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Logging != nil {
		r.Use(opts.Logging)
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics)
	}

	// Health endpoint is unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if opts.Auth != nil {
			api.Use(opts.Auth)
		}
		if opts.RateLimit != nil {
			api.Use(opts.RateLimit)
		}

		api.Post("/trip", s.SaveTrip)
		api.Get("/trip/{tripID}", s.GetTrip)
		api.Delete("/trip/{tripID}", s.DeleteTrip)
		api.Get("/trip/{tripID}/name", s.GetTripName)
		api.Get("/trip/{tripID}/viewers", s.GetTripViewers)
		api.Get("/trip/{tripID}/editors", s.GetTripEditors)

		api.Get("/trips/owned", s.ListOwnedTrips)
		api.Get("/trips/shared", s.ListSharedTrips)

		api.Get("/preferences", s.GetPreferences)
		api.Put("/preferences", s.SavePreferences)

		api.Post("/match-types", s.MatchPlaceTypes)
	})

	return r
}
