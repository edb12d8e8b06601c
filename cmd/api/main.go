// Package main is the entrypoint for the waitlist API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nawabco/waitlist/internal/cache"
	"github.com/nawabco/waitlist/internal/config"
	"github.com/nawabco/waitlist/internal/handler"
	"github.com/nawabco/waitlist/internal/mailer"
	"github.com/nawabco/waitlist/internal/metrics"
	"github.com/nawabco/waitlist/internal/ratelimit"
	"github.com/nawabco/waitlist/internal/repository"
	"github.com/nawabco/waitlist/internal/server"
	"github.com/nawabco/waitlist/internal/service"
)

// startupTimeout bounds connecting to Postgres and Redis.
const startupTimeout = 15 * time.Second

// notifier is a service.Notifier that also holds a session to release.
type notifier interface {
	service.Notifier
	Close(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	limiter, cacheClient := initLimiter(ctx, cfg, logger)
	mail := initMailer(cfg, logger)
	recorder := metrics.NewPrometheus()

	signupService := service.NewSignupService(repo, mail, limiter, cfg.AdminEmail, recorder, logger)

	// Keep a nil *cache.Cache out of the HealthChecker interface.
	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}

	r := setupRouter(routes{
		base:    handler.New(cfg.BrandName),
		health:  handler.NewHealthHandler(repo, cacheChecker),
		signup:  handler.NewSignupHandler(signupService, logger, cfg.IsDevelopment()),
		admin:   handler.NewAdminHandler(signupService, logger),
		metrics: handler.NewMetricsHandler(recorder.Handler()),
	}, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Closed in reverse: mailer, Redis, Postgres.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("mailer", mail.Close)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"email_enabled", cfg.SMTP.Enabled(),
		"admin_alerts", cfg.AdminEmail != "",
		"signup_cooldown", cfg.SignupCooldown,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLimiter uses Redis when REDIS_URL is set so the cooldown is shared by
// all instances. The returned cache is nil for the in-memory limiter.
func initLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, *cache.Cache) {
	if cfg.RedisURL == "" {
		logger.Info("signup cooldown kept in process memory")
		return ratelimit.NewMemory(cfg.SignupCooldown), nil
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	return ratelimit.NewRedis(cacheClient, cfg.SignupCooldown, logger), cacheClient
}

// initMailer returns the SMTP mailer, or a logging no-op when SMTP settings
// are incomplete.
func initMailer(cfg *config.Config, logger *slog.Logger) notifier {
	if !cfg.SMTP.Enabled() {
		logger.Warn("SMTP not configured, emails will not be sent")
		return mailer.NewNoop(logger)
	}

	m, err := mailer.NewSMTP(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.FromAddress(),
		Brand:    cfg.BrandName,
	}, logger)
	if err != nil {
		logger.Error("failed to initialise mailer", "error", err)
		os.Exit(1)
	}
	return m
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
