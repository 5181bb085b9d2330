package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/littleleg198602/MELODY4U/internal/service"
	"github.com/littleleg198602/MELODY4U/pkg/health"
	"github.com/littleleg198602/MELODY4U/pkg/middleware"
)

// NewRouter creates a chi router with all mix service routes registered.
func NewRouter(
	mixService *service.MixService,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("melody4u"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Mix API endpoints
	mixHandler := NewMixHandler(mixService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/upload", mixHandler.Upload)
		r.Post("/render", mixHandler.Render)
	})

	return r
}
