package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"taktsiv/internal/amqp"
	"taktsiv/internal/backend"
	"taktsiv/internal/config"
	apphttp "taktsiv/internal/http"
	"taktsiv/internal/ledger"
	"taktsiv/internal/log"
	"taktsiv/internal/schedule"
	"taktsiv/internal/voice"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := backend.NewFactory(logger)
	store, err := factory.CreateStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Cleanup()

	var publisher ledger.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	service, err := ledger.NewService(ctx, store.Store, publisher, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger service", "error", err)
		os.Exit(1)
	}

	intake := voice.NewIntake(service, logger, voice.Options{
		ListenTimeout:  cfg.VoiceListenTimeout,
		SettleDelay:    cfg.VoiceSettleDelay,
		CountdownTicks: cfg.VoiceCountdownTicks,
	})

	var scheduler *schedule.RolloverScheduler
	if cfg.RolloverEnabled {
		scheduler = schedule.NewRolloverScheduler(service, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start rollover scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		logger.Info("Rollover scheduler disabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, service, intake, logger, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
