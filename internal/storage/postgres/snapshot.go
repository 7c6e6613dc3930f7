package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"trail_catalog/internal/domain"
)

type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Record(ctx context.Context, run *domain.SnapshotRun) error {
	query := `
		INSERT INTO snapshot_runs (
			run_id, started_at, finished_at, items, trails, multitrails, hiking,
			bicycle, riding, running, without_activity, with_activity, unsupported
		) VALUES (
			:run_id, :started_at, :finished_at, :items, :trails, :multitrails, :hiking,
			:bicycle, :riding, :running, :without_activity, :with_activity, :unsupported
		)`

	_, err := sqlx.NamedExecContext(ctx, GetExecutor(ctx, s.db), query, run)
	return err
}

// Latest returns the most recently finished run, or nil when none exists.
func (s *SnapshotStore) Latest(ctx context.Context) (*domain.SnapshotRun, error) {
	var run domain.SnapshotRun
	query := `
		SELECT run_id, started_at, finished_at, items, trails, multitrails, hiking,
			bicycle, riding, running, without_activity, with_activity, unsupported
		FROM snapshot_runs
		ORDER BY finished_at DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &run, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
