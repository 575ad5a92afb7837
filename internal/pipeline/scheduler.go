package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// CycleRunner runs one refresh cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler triggers a cycle once after an initial delay and then on a
// fixed interval. Ticks never wait for the previous cycle; the runner
// decides what an overlap means.
type Scheduler struct {
	runner       CycleRunner
	clock        clockwork.Clock
	initialDelay time.Duration
	interval     time.Duration
	logger       *slog.Logger
	wg           sync.WaitGroup
}

// NewScheduler creates a Scheduler for runner.
func NewScheduler(runner CycleRunner, clock clockwork.Clock, initialDelay, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		clock:        clock,
		initialDelay: initialDelay,
		interval:     interval,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight cycles.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "initial_delay", s.initialDelay, "interval", s.interval)
	defer s.wg.Wait()

	timer := s.clock.NewTimer(s.initialDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		s.logger.Info("scheduler stopping", "reason", ctx.Err())
		return nil
	case <-timer.Chan():
	}
	s.launch(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.launch(ctx)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report, err := s.runner.RunCycle(ctx)
		switch {
		case errors.Is(err, domain.ErrCycleInProgress):
			// already logged by the runner
		case err != nil:
			s.logger.Warn("refresh cycle ended early", "error", err)
		default:
			s.logger.Info("refresh cycle finished",
				"duration", report.Duration,
				"inserted", report.Refresh.Inserted,
				"enriched", report.Enrich.Enriched(),
				"skipped", report.Enrich.Skipped(),
			)
		}
	}()
}
