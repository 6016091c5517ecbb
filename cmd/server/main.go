// Package main is the entry point for the freightdesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/config"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/domain/shipment"
	v1 "freightdesk/internal/infrastructure/http/v1"
	"freightdesk/internal/infrastructure/http/v1/handlers"
	"freightdesk/internal/infrastructure/http/v1/middleware"
	"freightdesk/internal/infrastructure/lock"
	"freightdesk/internal/infrastructure/numerator"
	"freightdesk/internal/infrastructure/storage/postgres"
	"freightdesk/internal/infrastructure/storage/postgres/catalog_repo"
	"freightdesk/internal/infrastructure/storage/postgres/document_repo"
	"freightdesk/internal/infrastructure/storage/postgres/register_repo"
	"freightdesk/pkg/logger"
)

var version = "dev"

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

	ctx := context.Background()
	log.Infow("starting freightdesk server", "version", version, "env", cfg.AppEnv)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	postgres.LogPoolStats(ctx, pool.Pool)

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional) ---
	var (
		locker      shipment.Locker = shipment.NopLocker{}
		redisPinger handlers.Pinger
	)
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer closeRedis(log, rdb)
		redisLocker := lock.NewRedisLocker(rdb, cfg.LockTTL)
		locker = redisLocker
		redisPinger = redisLocker
		log.Infow("shipment edit lock enabled", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL)
	} else {
		log.Warn("REDIS_ADDR not set; shipment edits are serialized by row locks only")
	}

	// --- Repositories ---
	batchRepo := catalog_repo.NewBatchRepo(txManager)
	clientRepo := catalog_repo.NewClientRepo(txManager)
	shipmentRepo := document_repo.NewShipmentRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Services ---
	clock := clockz.RealClock
	batchService := batch.NewService(batchRepo, txManager)
	clientService := client.NewService(clientRepo, txManager)
	shipmentService := shipment.NewService(shipment.Deps{
		Repo:      shipmentRepo,
		Batches:   batchRepo,
		Clients:   clientRepo,
		Invoices:  invoiceRepo,
		Numerator: numerator.NewTransactional(txManager),
		TxManager: txManager,
		Locker:    locker,
		Events:    postgres.NewOutboxPublisher(txManager),
		Audit:     auditService,
		Clock:     clock,
		Policy:    cfg.ShipmentPolicy(),
	})
	ledgerService := ledger.NewService(ledgerRepo, clientRepo, txManager, clock)
	invoiceService := invoice.NewService(invoiceRepo, shipmentRepo, txManager, clock)

	var keys middleware.KeyStore
	if cfg.IdempotencyEnabled {
		keys = postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL, clock)
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Services: v1.Services{
			Batches:   batchService,
			Clients:   clientService,
			Shipments: shipmentService,
			Ledger:    ledgerService,
			Invoices:  invoiceService,
		},
		DB:          pool,
		Idempotency: keys,
		Logger:      log,
		Version:     version,
		Debug:       cfg.IsDevelopment(),
	}
	if redisPinger != nil {
		routerCfg.Redis = redisPinger
	}
	router, err := v1.NewRouter(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func closeRedis(log *logger.Logger, rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Warnw("failed to close redis client", "error", err)
	}
}
