package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/config"
	apphttp "spendwise/internal/http"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/services"
	"spendwise/internal/state"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg)

	storeCfg, err := backend.StoreConfig(cfg)
	if err != nil {
		logger.Error("Invalid store configuration", log.FieldError, err, "error_type", log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateStore(context.Background(), storeCfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}

	app := state.New(res.Store, cfg.StoreTimeout)
	hub := live.NewHub(logger)
	app.OnReload(hub.OnReload)
	svc := services.NewDashboardService(res.Store, app)

	// Initial load; a failure leaves empty collections and /readyz reports it.
	snap := svc.Reload(context.Background())
	logger.Info("Initial state loaded",
		log.FieldVersion, snap.Version,
		"expenses", len(snap.Expenses),
		"alternatives", len(snap.Alternatives))

	srvCfg := apphttp.DefaultServerConfig()
	srvCfg.Addr = ":" + cfg.Port
	srvCfg.RateLimit = ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Burst:             cfg.RateLimitBurst,
	}
	srv := apphttp.NewServer(srvCfg, svc, hub, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	})

	autoRefresh := startAutoRefresh(ctx, cfg, svc, logger)

	logger.Info("Starting spendwise dashboard",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"auto_refresh", autoRefresh)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// startAutoRefresh reloads the state whenever the store announces a change,
// until ctx ends. It reports whether the consumer is running.
func startAutoRefresh(ctx context.Context, cfg *config.Config, svc *services.DashboardService, logger *log.Logger) bool {
	if !cfg.AutoRefresh || cfg.AMQPURL == "" {
		return false
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDashboardQueue)
	if err != nil {
		logger.Warn("Auto refresh disabled, AMQP unavailable",
			log.FieldError, err,
			"error_type", log.ErrorTypeNetwork)
		return false
	}

	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	go func() {
		defer client.Close()
		err := client.Consume(ctx, func(ctx context.Context, ev *amqp.ChangeEvent) error {
			snap := svc.Refresh(ctx)
			amqpLogger.DebugContext(ctx, "Reloaded after store change",
				"entity", ev.Entity,
				"action", ev.Action,
				log.FieldVersion, snap.Version)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			amqpLogger.Error("Change consumption stopped", log.FieldError, err)
		}
	}()
	return true
}
