package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lonmstalker/local-budget-app/internal/amqp"
	"github.com/lonmstalker/local-budget-app/internal/config"
	"github.com/lonmstalker/local-budget-app/internal/log"
	"github.com/lonmstalker/local-budget-app/internal/storage"
	"github.com/lonmstalker/local-budget-app/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.Setup("notifier", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewNotificationWorker(store)

	logger.Info("Notifier started", "queue", cfg.AMQPQueue, "db", cfg.SQLiteDBPath)
	err = client.ConsumeReminders(ctx, func(msg *amqp.ReminderMessage) error {
		return w.HandleReminder(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumption stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped", "delivered", w.Delivered())
}
