package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nawabco/waitlist/internal/config"
	"github.com/nawabco/waitlist/internal/handler"
	"github.com/nawabco/waitlist/internal/middleware"
)

// routes groups the handlers mounted by setupRouter.
type routes struct {
	base    *handler.Handler
	health  *handler.HealthHandler
	signup  *handler.SignupHandler
	admin   *handler.AdminHandler
	metrics *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(h routes, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientKey)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)
	r.Get("/", h.base.Index)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.signup.Signup)

		r.Route("/admin/emails", func(r chi.Router) {
			r.Get("/", h.admin.List)
			r.Get("/export", h.admin.Export)
			r.Delete("/{id}", h.admin.Delete)
		})
	})

	r.NotFound(h.base.NotFound)
	r.MethodNotAllowed(h.base.MethodNotAllowed)

	return r
}
