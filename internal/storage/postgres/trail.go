package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"trail_catalog/internal/domain"
)

const (
	trailColumns = 10

	// keeps each statement well under the 65535 bind parameter limit
	trailBatchSize = 500
)

type TrailStore struct {
	db         *sqlx.DB
	activities *ActivityStore
}

func NewTrailStore(db *sqlx.DB) *TrailStore {
	return &TrailStore{db: db, activities: NewActivityStore(db)}
}

// UpsertBatch stores the current state of each trail and stamps it with
// runID. Activity tags referenced by the rows are upserted first.
func (s *TrailStore) UpsertBatch(ctx context.Context, runID uuid.UUID, rows []domain.TrailRow) error {
	if len(rows) == 0 {
		return nil
	}

	activities := make([]domain.Activity, 0, len(rows))
	for _, r := range rows {
		activities = append(activities, domain.Activity{Key: r.ActivityKey, Value: r.ActivityLabel})
	}
	if err := s.activities.UpsertBatch(ctx, activities); err != nil {
		return fmt.Errorf("upsert activities: %w", err)
	}

	exec := GetExecutor(ctx, s.db)
	for start := 0; start < len(rows); start += trailBatchSize {
		end := min(start+trailBatchSize, len(rows))
		query, args := buildTrailUpsert(runID, rows[start:end])
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return nil
}

func buildTrailUpsert(runID uuid.UUID, rows []domain.TrailRow) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO trails (
		id, title, number, activity_key, multitrail, length_m, length_km, url, gpx_url, last_run_id
	) VALUES `)
	valueArgs := make([]interface{}, 0, len(rows)*trailColumns)

	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * trailColumns
		sb.WriteString("(")
		for c := 1; c <= trailColumns; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			if c == 4 {
				sb.WriteString("NULLIF($" + itoa(base+c) + ", '')")
				continue
			}
			sb.WriteString("$" + itoa(base+c))
		}
		sb.WriteString(")")
		valueArgs = append(valueArgs,
			r.ID, r.Title, r.Number, r.ActivityKey, r.MultiTrail,
			r.Length, r.LengthKm, r.URL, r.GPXURL, runID,
		)
	}
	sb.WriteString(`
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			number = EXCLUDED.number,
			activity_key = EXCLUDED.activity_key,
			multitrail = EXCLUDED.multitrail,
			length_m = EXCLUDED.length_m,
			length_km = EXCLUDED.length_km,
			url = EXCLUDED.url,
			gpx_url = EXCLUDED.gpx_url,
			last_run_id = EXCLUDED.last_run_id,
			updated_at = NOW()`)

	return sb.String(), valueArgs
}

// Activities returns every activity tag stored so far.
func (s *TrailStore) Activities(ctx context.Context) ([]domain.Activity, error) {
	return s.activities.GetAll(ctx)
}

// GetIDsByRun returns the ids of trails last seen in runID.
func (s *TrailStore) GetIDsByRun(ctx context.Context, runID uuid.UUID) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &ids,
		"SELECT id FROM trails WHERE last_run_id = $1 ORDER BY id", runID)
	return ids, err
}

func (s *TrailStore) GetByIDs(ctx context.Context, ids []string) (map[string]domain.TrailRow, error) {
	result := make(map[string]domain.TrailRow)
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT t.id, t.title, t.number, COALESCE(t.activity_key, '') AS activity_key,
			COALESCE(a.label, '') AS activity_label, t.multitrail, t.length_m, t.length_km,
			t.url, t.gpx_url
		FROM trails t
		LEFT JOIN activities a ON a.key = t.activity_key
		WHERE t.id = ANY($1)`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.TrailRow
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Number, &r.ActivityKey, &r.ActivityLabel,
			&r.MultiTrail, &r.Length, &r.LengthKm, &r.URL, &r.GPXURL,
		); err != nil {
			return nil, err
		}
		result[r.ID] = r
	}

	return result, rows.Err()
}
