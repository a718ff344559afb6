package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"taktsiv/internal/amqp"
	"taktsiv/internal/backend"
	"taktsiv/internal/config"
	"taktsiv/internal/log"
	"taktsiv/internal/sheets"
	gsheet "taktsiv/internal/sheets/google"
	mem "taktsiv/internal/sheets/memory"
	"taktsiv/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := backend.NewFactory(logger)
	store, err := factory.CreateStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Cleanup()

	var mirror sheets.ExpenseMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = mem.New()
		logger.Info("Google Sheets disabled - mirroring in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewMirrorWorker(store.Store, mirror, logger)

	logger.Info("Starting mirror worker", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeLedgerEvents(ctx, func(event *amqp.LedgerEvent) error {
		return w.HandleEvent(ctx, event)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Mirror worker stopped gracefully")
}
