package sqlite

import (
	"context"
	"database/sql"
	"time"
)

type checksumRepo struct {
	tx *sql.Tx
}

func (r *checksumRepo) Load(ctx context.Context) (map[string]string, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT entry, checksum FROM checksums`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]string)
	for rows.Next() {
		var entry, sum string
		if err := rows.Scan(&entry, &sum); err != nil {
			return nil, err
		}
		sums[entry] = sum
	}
	return sums, rows.Err()
}

func (r *checksumRepo) Replace(ctx context.Context, sums map[string]string) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM checksums`); err != nil {
		return err
	}

	stmt, err := r.tx.PrepareContext(ctx, `INSERT INTO checksums (entry, checksum, recorded_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for entry, sum := range sums {
		if _, err := stmt.ExecContext(ctx, entry, sum, now); err != nil {
			return err
		}
	}
	return nil
}
