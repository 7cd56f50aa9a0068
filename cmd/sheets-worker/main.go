package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/services"
	gsheet "spendwise/internal/sheets/google"
	"spendwise/internal/store/remote"
	"spendwise/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidate(logger, cfg)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration invalid", log.FieldError, err, "error_type", log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	logger.Info("Starting sheets-worker")

	source := remote.New(cfg.StoreURL, cfg.StoreTimeout)

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err, "error_type", log.ErrorTypeNetwork)
		os.Exit(1)
	}

	processor := services.NewMirrorProcessor(source, sheetsClient, services.MirrorProcessorConfig{
		PollInterval:   cfg.MirrorPollInterval,
		ResyncInterval: cfg.MirrorResyncInterval,
		MaxRetries:     3,
	})
	syncWorker := worker.NewSyncWorker(processor, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Mirror processor stop", log.FieldError, err)
		}
		_ = amqpClient.Close()
	})

	// Recover from changes missed while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start mirror processor", log.FieldError, err)
		os.Exit(1)
	}

	if err := syncWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
