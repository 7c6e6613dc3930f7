package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"trail_catalog/internal/domain"
)

type ActivityStore struct {
	db *sqlx.DB
}

func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// UpsertBatch inserts activity tags, refreshing labels of existing keys.
// Tags with an empty key are skipped.
func (s *ActivityStore) UpsertBatch(ctx context.Context, activities []domain.Activity) error {
	unique := make(map[string]string, len(activities))
	keys := make([]string, 0, len(activities))
	for _, a := range activities {
		if a.Key == "" {
			continue
		}
		if _, seen := unique[a.Key]; !seen {
			keys = append(keys, a.Key)
		}
		unique[a.Key] = a.Value
	}
	if len(keys) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO activities (key, label) VALUES ")
	valueArgs := make([]interface{}, 0, len(keys)*2)

	for i, key := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(itoa(i*2 + 1))
		sb.WriteString(", $")
		sb.WriteString(itoa(i*2 + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, key, unique[key])
	}
	sb.WriteString(" ON CONFLICT (key) DO UPDATE SET label = EXCLUDED.label")

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

func (s *ActivityStore) GetAll(ctx context.Context) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &activities,
		"SELECT key, label AS value FROM activities ORDER BY key")
	return activities, err
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
