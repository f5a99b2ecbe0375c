package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/medassist/internal/middleware"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

// RouterConfig wires handlers and middleware settings into a router.
type RouterConfig struct {
	Sessions *SessionHandler
	Health   *HealthHandler
	Logger   *logger.Logger

	// JWTSecret enables bearer auth on /api/v1 when set.
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}

		r.Get("/locales", cfg.Sessions.Locales)

		r.Route("/sessions", func(r chi.Router) {
			r.With(rateLimit(cfg)).Post("/", cfg.Sessions.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Sessions.Get)
				r.Delete("/", cfg.Sessions.Delete)

				r.Put("/locale", cfg.Sessions.SelectLocale)
				r.Delete("/locale", cfg.Sessions.ChangeLocale)

				r.With(rateLimit(cfg)).Post("/messages", cfg.Sessions.Send)
			})
		})
	})

	return r
}

func rateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)
}
