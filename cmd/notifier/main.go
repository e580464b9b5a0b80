package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"churchadmin/internal/config"
	"churchadmin/internal/logger"
	"churchadmin/internal/notify"
)

// notifier drains the domain event queue. Delivery channels hang off the
// handler; for now every event is logged.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	if cfg.Notify.URL == "" {
		log.Fatal("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", cfg.Notify.Queue).Info("notifier started")
	err := notify.Consume(ctx, cfg.Notify.URL, cfg.Notify.Queue, log, notify.LogHandler(log))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("notifier stopped")
	}
	log.Info("notifier stopped")
}
