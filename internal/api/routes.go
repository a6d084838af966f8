package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(m *Middleware, metricsHandler http.Handler, corsOrigins []string, rateLimitRPM int, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.Compress)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS and rate limiting - configured from main
	r.Use(m.CORS(corsOrigins))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(m.RateLimit(rateLimitRPM))
		r.Use(m.Timeout(timeout))

		r.Get("/posts", h.GetPosts)
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", h.GetAnalytics)
			r.Get("/platforms", h.GetPlatformStats)
			r.Get("/brands", h.GetBrandStats)
			r.Get("/campaigns", h.GetCampaignStats)
			r.Get("/sentiment", h.GetSentimentAnalysis)
			r.Get("/trends", h.GetEngagementTrends)
			r.Get("/top-posts", h.GetTopPosts)
		})
	})

	return r
}
