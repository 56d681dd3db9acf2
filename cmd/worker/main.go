package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultpay/backend/internal/config"
	"github.com/vaultpay/backend/internal/db"
	"github.com/vaultpay/backend/internal/events"
	"github.com/vaultpay/backend/internal/notify"
	"github.com/vaultpay/backend/internal/repositories"
	"github.com/vaultpay/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := repositories.NewPgStore(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	notifier := notify.NewEventNotifier(publisher, log)
	escrowService := services.NewEscrowService(store, notifier, cfg, log)

	log.Info("worker started", zap.Duration("sweep_interval", cfg.SweepInterval))

	sweepTicker := time.NewTicker(cfg.SweepInterval)
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			runSweep(ctx, escrowService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runSweep(ctx context.Context, escrowService *services.EscrowService, log *zap.Logger) {
	cancelled, err := escrowService.SweepExpired(ctx)
	if err != nil {
		log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if cancelled > 0 {
		log.Info("expiry sweep cancelled transactions", zap.Int("count", cancelled))
	}
}
