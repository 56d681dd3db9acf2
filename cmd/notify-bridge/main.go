package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vaultpay/backend/internal/config"
	"github.com/vaultpay/backend/internal/db"
	"github.com/vaultpay/backend/internal/events"
	"github.com/vaultpay/backend/internal/notify"
	"go.uber.org/zap"
)

// Notify Bridge — subscribes to transaction events on Redis and forwards
// per-recipient notifications to an external webhook, applying the
// per-recipient cooldown so a burst of transitions does not spam anyone.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	limiter := notify.NewRedisLimiter(rdb, cfg.NotifyCooldown)

	var deliverer notify.Deliverer
	if cfg.NotifyWebhookURL != "" {
		deliverer = notify.NewWebhookDeliverer(cfg.NotifyWebhookURL, log)
	} else {
		log.Warn("NOTIFY_WEBHOOK_URL not set, logging notifications instead")
		deliverer = notify.NewLogDeliverer(log)
	}

	dispatcher := notify.NewDispatcher(limiter, deliverer, log)

	log.Info("notify-bridge started")

	_ = subscriber.Subscribe(ctx, events.StreamTransactions, func(event events.Event) {
		dispatcher.Handle(ctx, event)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
