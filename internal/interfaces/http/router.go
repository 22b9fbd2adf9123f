// Package http exposes the scoring API over HTTP.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/handlers"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware settings of the route
// tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	HealthHandler     *handlers.HealthHandler
	QuizHandler       *handlers.QuizHandler
	EvaluationHandler *handlers.EvaluationHandler
	ReportHandler     *handlers.ReportHandler
	SpecialistHandler *handlers.SpecialistHandler

	CORS        middleware.CORSConfig
	RateLimiter *middleware.KeyedLimiter
	RateLimit   middleware.RateLimitConfig

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// NewRouter builds the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging(cfg.Logger.Named("http"), cfg.Metrics, middleware.DefaultLoggingConfig()))
	r.Use(middleware.CORS(cfg.CORS))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Anonymous: the quiz itself and the stateless preview.
		api.Group(func(pub chi.Router) {
			pub.Use(middleware.Identity(middleware.IdentityConfig{Optional: true}, cfg.Logger))
			if cfg.RateLimiter != nil {
				pub.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
			}
			if cfg.QuizHandler != nil {
				pub.Get("/quizzes/{type}", cfg.QuizHandler.Get)
			}
			if cfg.EvaluationHandler != nil {
				pub.Post("/score", cfg.EvaluationHandler.Score)
			}
		})

		api.Group(func(priv chi.Router) {
			priv.Use(middleware.Identity(middleware.IdentityConfig{}, cfg.Logger))
			if cfg.RateLimiter != nil {
				priv.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
			}
			registerEvaluationRoutes(priv, cfg)
		})
	})

	return r
}

func registerEvaluationRoutes(r chi.Router, cfg RouterConfig) {
	h := cfg.EvaluationHandler
	if h == nil {
		return
	}
	r.Get("/dashboard", h.Dashboard)
	r.Route("/evaluations", func(er chi.Router) {
		er.Get("/", h.List)
		er.Post("/", h.Create)

		er.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Patch("/", h.Update)
			item.Get("/result", h.Result)
			if cfg.ReportHandler != nil {
				item.Get("/report", cfg.ReportHandler.Get)
				item.Get("/report/archived", cfg.ReportHandler.Archived)
			}
			if cfg.SpecialistHandler != nil {
				item.Get("/specialists", cfg.SpecialistHandler.Recommend)
			}
		})
	})
}
