// Package sweep evicts idle client budgets from the in-memory registry so
// one-off visitors don't accumulate unbounded state.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"formgate/internal/abuse/metrics"
)

// SweepResult contains the results of a sweep run.
type SweepResult struct {
	Removed  int           // Idle budget entries evicted
	Tracked  int           // Budgets still tracked after the sweep
	Duration time.Duration // Time taken for the sweep run
}

// BudgetStore exposes the registry operations the sweeper needs. A budget is
// idle once it has gone untouched long enough to have fully refilled.
type BudgetStore interface {
	SweepIdle(ctx context.Context, idleFor time.Duration) (removed int, err error)
	Size(ctx context.Context) (int, error)
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

type Sweeper struct {
	store    BudgetStore
	logger   *slog.Logger
	interval time.Duration
	idleFor  time.Duration
	metrics  *metrics.Metrics
}

// New creates a sweeper that evicts budgets idle for at least idleFor.
func New(store BudgetStore, idleFor time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		logger:   slog.Default(),
		interval: time.Hour,
		idleFor:  idleFor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res, err := s.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Error("budget_sweep_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				if s.metrics != nil {
					s.metrics.RecordSweep("error", 0, duration)
				}
				continue
			}

			res.Duration = duration

			s.logger.Info("budget_sweep_completed",
				"removed", res.Removed,
				"tracked", res.Tracked,
				"duration_ms", duration.Milliseconds(),
			)

			if s.metrics != nil {
				s.metrics.RecordSweep("success", res.Removed, duration)
				s.metrics.SetTrackedClients(res.Tracked)
			}

		case <-ctx.Done():
			s.logger.Info("budget sweep worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep. Logging is handled by the caller (Start).
func (s *Sweeper) RunOnce(ctx context.Context) (*SweepResult, error) {
	removed, err := s.store.SweepIdle(ctx, s.idleFor)
	if err != nil {
		return nil, err
	}
	tracked, err := s.store.Size(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Removed: removed, Tracked: tracked}, nil
}
