package scheduler

import (
	"context"
	"log/slog"
	"time"

	"trail_catalog/internal/domain"
)

// Runner defines the interface for a single report run.
type Runner interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}

// ResultFunc receives the outcome of every run.
type ResultFunc func(result *domain.RunResult, err error)

type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	onResult ResultFunc
	logger   *slog.Logger
}

func NewScheduler(runner Runner, interval, timeout time.Duration, onResult ResultFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		onResult: onResult,
		logger:   logger,
	}
}

// Start runs immediately and then once per interval until ctx is done.
// Runs are sequential; a slow run delays the next tick instead of overlapping.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.runner.Run(runCtx)
	if err != nil {
		s.logger.Error("run failed", "error", err)
	}
	if s.onResult != nil {
		s.onResult(result, err)
	}
}
