package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/neexbeast/routecost/internal/metrics"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated; all location routes require bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
// cache may be nil when no geocode cache is configured.
func NewRouter(handlers *Handlers, token string, db Pinger, cache Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, cache, log))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Post("/api/v1/uploads", handlers.Upload)
		r.Get("/api/v1/locations", handlers.ListLocations)
		r.Delete("/api/v1/locations", handlers.ClearLocations)
		r.Post("/api/v1/enrichments", handlers.RunEnrichment)
		r.Get("/api/v1/markers", handlers.Markers)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
