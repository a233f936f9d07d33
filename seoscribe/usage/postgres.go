package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Pruner = (*PostgresBackend)(nil)

// stores records in the usage_records table
type PostgresBackend struct {
	db *pgxpool.Pool
}

// creates a postgres backend on an existing pool
func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// creates the usage_records table if needed
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, queryCreateUsageRecordsPostgres); err != nil {
		return fmt.Errorf("failed to create usage_records: %w", err)
	}

	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, key string) (*Record, error) {
	var data []byte

	err := b.db.QueryRow(ctx, queryLoadUsageRecordPostgres, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load usage record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode usage record: %w", err)
	}

	return &rec, nil
}

func (b *PostgresBackend) Save(ctx context.Context, key string, rec *Record) error {
	if rec == nil {
		return errors.New("usage record is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode usage record: %w", err)
	}

	_, err = b.db.Exec(ctx, queryUpsertUsageRecordPostgres, key, rec.Counter.Day, demoUsedAt(rec), data)
	if err != nil {
		return fmt.Errorf("failed to save usage record: %w", err)
	}

	return nil
}

func (b *PostgresBackend) Prune(ctx context.Context, before string, demoBefore time.Time) (int64, error) {
	tag, err := b.db.Exec(ctx, queryPruneUsageRecordsPostgres, before, demoBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}

	return tag.RowsAffected(), nil
}

func demoUsedAt(rec *Record) *time.Time {
	if rec.Demo == nil || !rec.Demo.Used {
		return nil
	}

	return rec.Demo.UsedAt
}
