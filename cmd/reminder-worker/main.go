package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lonmstalker/local-budget-app/internal/amqp"
	"github.com/lonmstalker/local-budget-app/internal/config"
	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/log"
	"github.com/lonmstalker/local-budget-app/internal/services"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.Setup("reminder-worker", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the reminder worker")
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer client.Close()

	processor := services.NewReminderProcessor(store, client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Reminder worker configured",
		"interval", cfg.ReminderInterval,
		"lookahead_days", cfg.ReminderLookaheadDays,
		"db", cfg.SQLiteDBPath)

	run := func() {
		n, err := processor.ProcessReminders(ctx, core.Today(), cfg.ReminderLookaheadDays)
		if err != nil {
			logger.Error("Reminder scan failed", "error", err)
			return
		}
		logger.Info("Reminder scan finished", "published", n)
	}

	// One scan on startup, then on the ticker.
	run()

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
