package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/internal/storage"
)

type runRepo struct {
	tx *sql.Tx
}

const runColumns = `id, status, select_all, universe_size, affected_count, unit_count,
	pair_count, schedule_count, remaining_pairs, construction, square_order,
	failure_reason, created_at, updated_at, completed_at`

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Status, run.SelectAll, run.UniverseSize, run.AffectedCount, run.UnitCount,
		run.PairCount, run.ScheduleCount, run.RemainingPairs, run.Construction.String(), run.SquareOrder,
		run.FailureReason, run.CreatedAt, run.UpdatedAt, run.CompletedAt)
	return err
}

func (r *runRepo) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRunNotFound
	}
	return run, err
}

func (r *runRepo) Update(ctx context.Context, run *domain.Run) error {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, select_all = ?, universe_size = ?, affected_count = ?, unit_count = ?,
			pair_count = ?, schedule_count = ?, remaining_pairs = ?, construction = ?,
			square_order = ?, failure_reason = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`, run.Status, run.SelectAll, run.UniverseSize, run.AffectedCount, run.UnitCount,
		run.PairCount, run.ScheduleCount, run.RemainingPairs, run.Construction.String(),
		run.SquareOrder, run.FailureReason, run.UpdatedAt, run.CompletedAt, run.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) List(ctx context.Context, opts storage.ListOptions) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any

	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, st := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ",") + ")"
	}

	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepo) Delete(ctx context.Context, id string) error {
	result, err := r.tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	run := &domain.Run{}
	var construction, failure sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Status, &run.SelectAll, &run.UniverseSize, &run.AffectedCount,
		&run.UnitCount, &run.PairCount, &run.ScheduleCount, &run.RemainingPairs, &construction,
		&run.SquareOrder, &failure, &run.CreatedAt, &run.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.Construction = domain.ParseConstruction(construction.String)
	run.FailureReason = failure.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
