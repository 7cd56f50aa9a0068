package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendwise/internal/api"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentAPI)
	cli.MustValidate(logger, cfg)

	repoCfg, err := backend.RepositoryConfig(cfg)
	if err != nil {
		logger.Error("Invalid repository configuration", log.FieldError, err, "error_type", log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateRepository(context.Background(), repoCfg)
	if err != nil {
		logger.Error("Failed to initialize repository",
			log.FieldError, err,
			"backend", cfg.RepositoryBackend,
			"error_type", log.ErrorTypeDatabase)
		os.Exit(1)
	}

	srv := api.NewServer(api.ServerConfig{
		Addr: ":" + cfg.StorePort,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
	}, res.Service, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Repository cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting expense store",
		"port", cfg.StorePort,
		"backend", cfg.RepositoryBackend,
		"amqp_enabled", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.StorePort)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Expense store stopped gracefully")
}
