package collector

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the collector endpoints. stats may be nil.
func NewRouter(h *HTTPHandler, stats *Counter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)

	r.Get("/health", HealthCheck)
	r.Post("/v1/events", h.HandleEvents)
	if stats != nil {
		r.Get("/v1/stats", stats.HandleStats)
	}
	return r
}
