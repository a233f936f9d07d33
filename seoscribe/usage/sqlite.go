package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var _ Pruner = (*SQLiteBackend)(nil)

// stores records in a local SQLite database
type SQLiteBackend struct {
	db *sql.DB
}

// opens (or creates) usage.db in dataDir
func NewSQLiteBackend(ctx context.Context, dataDir string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create usage store dir: %w", err)
	}

	dsn := filepath.Join(dataDir, "usage.db") + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, queryCreateUsageRecordsSQLite); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close usage db after schema init failure: %w", closeErr))
		}

		return nil, fmt.Errorf("init usage schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Load(ctx context.Context, key string) (*Record, error) {
	var data string

	err := b.db.QueryRowContext(ctx, queryLoadUsageRecordSQLite, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load usage record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode usage record: %w", err)
	}

	return &rec, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, key string, rec *Record) error {
	if rec == nil {
		return errors.New("usage record is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode usage record: %w", err)
	}

	var usedAt sql.NullInt64
	if t := demoUsedAt(rec); t != nil {
		usedAt = sql.NullInt64{Int64: t.Unix(), Valid: true}
	}

	_, err = b.db.ExecContext(ctx, queryUpsertUsageRecordSQLite,
		key, rec.Counter.Day, usedAt, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save usage record: %w", err)
	}

	return nil
}

func (b *SQLiteBackend) Prune(ctx context.Context, before string, demoBefore time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, queryPruneUsageRecordsSQLite, before, demoBefore.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune usage records: %w", err)
	}

	return res.RowsAffected()
}
