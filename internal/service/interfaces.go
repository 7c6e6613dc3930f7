package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"trail_catalog/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) (json.RawMessage, error)
}

type TrailStore interface {
	UpsertBatch(ctx context.Context, runID uuid.UUID, rows []domain.TrailRow) error
	GetIDsByRun(ctx context.Context, runID uuid.UUID) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.TrailRow, error)
	Activities(ctx context.Context) ([]domain.Activity, error)
}

type SnapshotStore interface {
	Record(ctx context.Context, run *domain.SnapshotRun) error
	Latest(ctx context.Context) (*domain.SnapshotRun, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, result *domain.RunResult) error
	Close() error
}
