package usage

const (
	queryCreateUsageRecordsPostgres = `
		CREATE TABLE IF NOT EXISTS usage_records (
			key          TEXT PRIMARY KEY,
			day          TEXT NOT NULL DEFAULT '',
			demo_used_at TIMESTAMPTZ,
			data         JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_usage_records_day ON usage_records (day);
	`

	queryLoadUsageRecordPostgres = `
		SELECT data FROM usage_records WHERE key = $1
	`

	queryUpsertUsageRecordPostgres = `
		INSERT INTO usage_records (key, day, demo_used_at, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key)
		DO UPDATE SET
			day = EXCLUDED.day,
			demo_used_at = EXCLUDED.demo_used_at,
			data = EXCLUDED.data,
			updated_at = NOW()
	`

	queryPruneUsageRecordsPostgres = `
		DELETE FROM usage_records
		WHERE day < $1
		AND (demo_used_at IS NULL OR demo_used_at < $2)
	`

	queryCreateUsageRecordsSQLite = `
		CREATE TABLE IF NOT EXISTS usage_records (
			key          TEXT PRIMARY KEY,
			day          TEXT NOT NULL DEFAULT '',
			demo_used_at INTEGER,
			data         TEXT NOT NULL,
			updated_at   INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_usage_records_day ON usage_records (day);
	`

	queryLoadUsageRecordSQLite = `
		SELECT data FROM usage_records WHERE key = ?
	`

	queryUpsertUsageRecordSQLite = `
		INSERT INTO usage_records (key, day, demo_used_at, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key)
		DO UPDATE SET
			day = excluded.day,
			demo_used_at = excluded.demo_used_at,
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	queryPruneUsageRecordsSQLite = `
		DELETE FROM usage_records
		WHERE day < ?
		AND (demo_used_at IS NULL OR demo_used_at < ?)
	`
)
