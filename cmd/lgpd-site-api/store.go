package main

import (
	"context"
	"fmt"

	"lgpd-site-api/internal/config"
	"lgpd-site-api/internal/database"
	"lgpd-site-api/internal/http/client"
	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/storage"
	"lgpd-site-api/internal/storage/postgres"
	"lgpd-site-api/internal/storage/postgrest"
	"lgpd-site-api/internal/storage/sqlite"

	"go.uber.org/zap"
)

// openStore builds the storage adapter selected by STORAGE_DRIVER.
// The returned func releases whatever the adapter holds.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Store, func(), error) {
	log.Info(ctx, "opening storage",
		logger.Module("storage"),
		logger.Action("open"),
		zap.String("driver", cfg.StorageDriver),
	)

	switch cfg.StorageDriver {
	case config.DriverPostgREST:
		store, err := postgrest.New(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, client.New(cfg.StorageTimeout()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgrest store: %w", err)
		}
		return store, func() {}, nil

	case config.DriverPostgres:
		log.Info(ctx, "running database migrations", logger.Module("storage"), logger.Action("migrate"))
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.New(pool), pool.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn(context.Background(), "failed to close sqlite store", logger.Module("storage"), logger.Action("close"), zap.Error(err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
