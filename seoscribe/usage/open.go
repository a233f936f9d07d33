package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/logger"
)

// opens the backend selected by cfg.UsageStore. close releases its connections.
func OpenBackend(ctx context.Context, cfg *config.Config) (backend Backend, closeFn func(), err error) {
	switch cfg.UsageStore {
	case config.StoreMemory:
		return NewMemoryBackend(), func() {}, nil

	case config.StoreFile:
		return NewFileBackend(cfg.DataDir), func() {}, nil

	case config.StoreSQLite:
		b, err := NewSQLiteBackend(ctx, cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}

		return b, func() { b.Close() }, nil //nolint:errcheck,gosec // best-effort cleanup on shutdown

	case config.StoreRedis:
		b, err := NewRedisBackend(cfg.RedisURL, WithRedisLockout(cfg.DemoLockout))
		if err != nil {
			return nil, nil, err
		}

		return b, func() { b.Close() }, nil //nolint:errcheck,gosec // best-effort cleanup on shutdown

	case config.StorePostgres:
		db, err := openPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		b := NewPostgresBackend(db)
		if err := b.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		return b, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown usage store %q", cfg.UsageStore)
	}
}

func openPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// usage records are small single-row reads and upserts
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres")

	return db, nil
}
