package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunResult describes one fetch/parse/export pass.
type RunResult struct {
	RunID     uuid.UUID
	Report    Report
	CSVPath   string
	CSVRows   int
	RawPath   string
	StartedAt time.Time
	Duration  time.Duration
}

// SnapshotRun is the persisted history entry for a run.
type SnapshotRun struct {
	RunID           uuid.UUID `db:"run_id"`
	StartedAt       time.Time `db:"started_at"`
	FinishedAt      time.Time `db:"finished_at"`
	Items           int       `db:"items"`
	Trails          int       `db:"trails"`
	MultiTrails     int       `db:"multitrails"`
	Hiking          int       `db:"hiking"`
	Bicycle         int       `db:"bicycle"`
	Riding          int       `db:"riding"`
	Running         int       `db:"running"`
	WithoutActivity int       `db:"without_activity"`
	WithActivity    int       `db:"with_activity"`
	Unsupported     int       `db:"unsupported"`
}

func NewSnapshotRun(runID uuid.UUID, startedAt time.Time, items int, r Report) SnapshotRun {
	return SnapshotRun{
		RunID:           runID,
		StartedAt:       startedAt,
		FinishedAt:      time.Now().UTC(),
		Items:           items,
		Trails:          r.Trails,
		MultiTrails:     r.MultiTrails,
		Hiking:          r.Hiking,
		Bicycle:         r.Bicycle,
		Riding:          r.Riding,
		Running:         r.Running,
		WithoutActivity: r.WithoutActivity,
		WithActivity:    r.WithActivity,
		Unsupported:     r.Unsupported,
	}
}
