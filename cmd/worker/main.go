// Package main is the entry point for the freightdesk background worker.
// It relays outbox events to asynq, handles the resulting tasks and
// expires old idempotency keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/zoobzio/clockz"
	"golang.org/x/sync/errgroup"

	"freightdesk/internal/config"
	"freightdesk/internal/infrastructure/storage/postgres"
	"freightdesk/internal/jobs"
	"freightdesk/pkg/logger"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	log = log.WithComponent("worker")

	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR must be set for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting freightdesk worker")

	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	client := asynq.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close asynq client", "error", err)
		}
	}()

	relay := postgres.NewOutboxRelay(txManager, cfg.WorkerBatchSize, jobs.NewForwarder(client), clockz.RealClock)
	loop := jobs.NewRelayLoop(relay, cfg.WorkerPollInterval, cfg.WorkerBatchSize)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    jobs.ShipmentHandlers(jobs.NewNotificationHandler(jobs.LogNotifier{})),
	})

	keys := postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL, clockz.RealClock)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return cleanupIdempotency(gctx, keys) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("worker stopped with error", "error", err)
		return
	}
	log.Info("worker stopped")
}

func cleanupIdempotency(ctx context.Context, keys *postgres.IdempotencyStore) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := keys.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "cleaned up idempotency keys", "count", n)
			}
		}
	}
}
