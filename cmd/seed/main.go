// Package main provides a CLI tool that applies the SQL migrations and
// optionally seeds demo batches and clients.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/georgysavva/scany/v2/pgxscan"

	"freightdesk/internal/config"
	"freightdesk/internal/core/apperror"
	corenumerator "freightdesk/internal/core/numerator"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/numerator"
	"freightdesk/internal/infrastructure/storage/postgres"
	"freightdesk/internal/infrastructure/storage/postgres/catalog_repo"
	"freightdesk/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	dir := os.Getenv("SEED_MIGRATIONS_DIR")
	if dir == "" {
		dir = "db/migrations"
	}
	if os.Getenv("SEED_SKIP_MIGRATIONS") != "true" {
		if err := migrate(ctx, pool, dir, log); err != nil {
			log.Fatalw("failed to apply migrations", "dir", dir, "error", err)
		}
	}

	if err := syncCounters(ctx, pool, log); err != nil {
		log.Fatalw("failed to sync shipment counters", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		txManager := postgres.NewTxManager(pool)
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// migrate runs every *.sql file of dir in lexical order, each in one statement batch.
func migrate(ctx context.Context, pool *postgres.Pool, dir string, log *logger.Logger) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", filepath.Base(f), err)
		}
		log.Infow("migration applied", "file", filepath.Base(f))
	}
	return nil
}

// syncCounters raises every per-batch ordinal counter to the highest ordinal
// already present in shipments, so imported rows never collide with new tracks.
func syncCounters(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	var tracks []shipment.BatchTrack
	err := pgxscan.Select(ctx, pool, &tracks, `
		SELECT batch_id, internal_track FROM shipments
		WHERE batch_id IS NOT NULL AND internal_track <> ''`)
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}

	counters := numerator.New(pool)
	for batchID, ordinal := range shipment.HighestOrdinals(tracks) {
		if err := counters.SetCurrent(ctx, corenumerator.ShipmentsInBatch(batchID), ordinal); err != nil {
			return err
		}
		log.Infow("shipment counter synced", "batch_id", batchID, "ordinal", ordinal)
	}
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	log.Info("seeding demo data...")

	batches := batch.NewService(catalog_repo.NewBatchRepo(txManager), txManager)
	clients := client.NewService(catalog_repo.NewClientRepo(txManager), txManager)

	demoBatches := []struct {
		code string
		mode batch.DeliveryType
	}{
		{"00010", batch.DeliveryAir},
		{"00011", batch.DeliverySea},
		{"00012", batch.DeliveryRail},
	}
	for _, b := range demoBatches {
		err := batches.Create(ctx, batch.NewBatch(b.code, "Batch "+b.code, b.mode))
		if skipExisting(err) {
			log.Infow("batch already exists", "code", b.code)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed batch %s: %w", b.code, err)
		}
		log.Infow("batch created", "code", b.code, "delivery_type", b.mode)
	}

	demoClients := []struct {
		code, name, city string
	}{
		{"2661", "Kyiv Import", "Kyiv"},
		{"3120", "Lviv Trade House", "Lviv"},
	}
	for _, c := range demoClients {
		cl := client.NewClient(c.code, c.name)
		city := c.city
		cl.City = &city
		err := clients.Create(ctx, cl)
		if skipExisting(err) {
			log.Infow("client already exists", "code", c.code)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed client %s: %w", c.code, err)
		}
		log.Infow("client created", "code", c.code)
	}

	return nil
}

func skipExisting(err error) bool {
	return apperror.HasCode(err, apperror.CodeDuplicate)
}
