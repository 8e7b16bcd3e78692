package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Runs table
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status INTEGER NOT NULL DEFAULT 0,
			select_all BOOLEAN NOT NULL DEFAULT FALSE,
			universe_size INTEGER NOT NULL DEFAULT 0,
			affected_count INTEGER NOT NULL DEFAULT 0,
			unit_count INTEGER NOT NULL DEFAULT 0,
			pair_count INTEGER NOT NULL DEFAULT 0,
			schedule_count INTEGER NOT NULL DEFAULT 0,
			remaining_pairs INTEGER NOT NULL DEFAULT 0,
			construction TEXT,
			square_order INTEGER NOT NULL DEFAULT 0,
			failure_reason TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,

		// Classpath checksums from the most recent run
		`CREATE TABLE IF NOT EXISTS checksums (
			entry TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
