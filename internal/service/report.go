package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trail_catalog/internal/config"
	"trail_catalog/internal/domain"
	"trail_catalog/internal/export"
)

// ReportService runs the fetch, parse, export pipeline once per call.
// Store and publisher dependencies are optional; nil disables that step.
type ReportService struct {
	source    Source
	trails    TrailStore
	snapshots SnapshotStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.OutputConfig
}

func NewReportService(
	source Source,
	trails TrailStore,
	snapshots SnapshotStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.OutputConfig,
) *ReportService {
	return &ReportService{
		source:    source,
		trails:    trails,
		snapshots: snapshots,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
	}
}

func (s *ReportService) Run(ctx context.Context) (*domain.RunResult, error) {
	result := &domain.RunResult{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	logger := s.logger.With("run_id", result.RunID)
	logger.Info("starting run", "source_name", s.source.Name())

	catalog, err := s.fetchAndStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	if err := catalog.ParseItems(); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	logger.Info("parsed catalog", "items", len(catalog.Items))

	report, err := catalog.Report()
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	result.Report = report

	if s.config.SaveRaw {
		if err := export.SaveRaw(s.config.RawPath, catalog); err != nil {
			return result, fmt.Errorf("save raw json: %w", err)
		}
		result.RawPath = s.config.RawPath
		logger.Info("json saved", "path", s.config.RawPath)
	}

	trails := catalog.Trails()
	rows, err := export.WriteTrailsCSV(s.config.CSVPath, trails)
	if err != nil {
		return result, fmt.Errorf("export csv: %w", err)
	}
	result.CSVPath = s.config.CSVPath
	result.CSVRows = rows
	logger.Info("trail items exported", "path", s.config.CSVPath, "rows", rows)

	if s.trails != nil {
		rows, err := trailRows(trails)
		if err != nil {
			return result, fmt.Errorf("save snapshot: %w", err)
		}
		s.logChanges(ctx, logger, report, rows)
		if err := s.saveSnapshot(ctx, result, rows, len(catalog.Items)); err != nil {
			return result, fmt.Errorf("save snapshot: %w", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, result); err != nil {
			return result, fmt.Errorf("publish report: %w", err)
		}
	}

	result.Duration = time.Since(result.StartedAt)

	logger.Info("run completed",
		"trails", report.Trails,
		"unsupported", report.Unsupported,
		"duration", result.Duration,
	)

	return result, nil
}

func (s *ReportService) fetchAndStore(ctx context.Context) (*domain.Catalog, error) {
	data, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	catalog := &domain.Catalog{}
	catalog.Store(data)
	return catalog, nil
}

// Close releases the publisher connection, if any.
func (s *ReportService) Close() error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

// logChanges compares this run with the previous stored one: count deltas,
// trails that left the catalog and activity tags never stored before.
// Failing to read history does not stop the run.
func (s *ReportService) logChanges(ctx context.Context, logger *slog.Logger, report domain.Report, rows []domain.TrailRow) {
	prev, err := s.snapshots.Latest(ctx)
	if err != nil {
		logger.Warn("failed to load previous run", "error", err)
		return
	}

	s.logNewActivities(ctx, logger, rows)

	if prev == nil {
		logger.Info("no previous run recorded")
		return
	}

	logger.Info("changes since previous run",
		"previous_run_id", prev.RunID,
		"trails_delta", report.Trails-prev.Trails,
		"multitrails_delta", report.MultiTrails-prev.MultiTrails,
		"unsupported_delta", report.Unsupported-prev.Unsupported,
	)

	s.logDroppedTrails(ctx, logger, prev.RunID, rows)
}

func (s *ReportService) logNewActivities(ctx context.Context, logger *slog.Logger, rows []domain.TrailRow) {
	known, err := s.trails.Activities(ctx)
	if err != nil {
		logger.Warn("failed to load known activities", "error", err)
		return
	}

	seen := make(map[string]bool, len(known))
	for _, a := range known {
		seen[a.Key] = true
	}

	var added []string
	for _, r := range rows {
		if r.ActivityKey == "" || seen[r.ActivityKey] {
			continue
		}
		seen[r.ActivityKey] = true
		added = append(added, r.ActivityKey)
	}
	if len(added) > 0 {
		logger.Info("new activity tags", "keys", added)
	}
}

// logDroppedTrails reports trails stored by the previous run that are
// missing from this one. Must run before the new rows are upserted.
func (s *ReportService) logDroppedTrails(ctx context.Context, logger *slog.Logger, prevRunID uuid.UUID, rows []domain.TrailRow) {
	prevIDs, err := s.trails.GetIDsByRun(ctx, prevRunID)
	if err != nil {
		logger.Warn("failed to load previous trails", "error", err)
		return
	}

	current := make(map[string]bool, len(rows))
	for _, r := range rows {
		current[r.ID] = true
	}

	var dropped []string
	for _, id := range prevIDs {
		if !current[id] {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) == 0 {
		return
	}

	stored, err := s.trails.GetByIDs(ctx, dropped)
	if err != nil {
		logger.Warn("failed to load dropped trails", "error", err)
		return
	}
	for _, id := range dropped {
		logger.Info("trail dropped from catalog", "trail_id", id, "title", stored[id].Title)
	}
}

func trailRows(trails []*domain.TrailItem) ([]domain.TrailRow, error) {
	rows := make([]domain.TrailRow, 0, len(trails))
	for _, t := range trails {
		row, err := t.Row()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ReportService) saveSnapshot(ctx context.Context, result *domain.RunResult, rows []domain.TrailRow, items int) error {
	run := domain.NewSnapshotRun(result.RunID, result.StartedAt, items, result.Report)

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.trails.UpsertBatch(txCtx, result.RunID, rows); err != nil {
			return fmt.Errorf("upsert trails: %w", err)
		}
		if err := s.snapshots.Record(txCtx, &run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		return nil
	})
}
