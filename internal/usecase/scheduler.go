package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"news-ingest/internal/domain"
	"news-ingest/internal/ports"
)

// Scheduler owns the two recurring cadences: a frequent feed-only cycle and
// a less-frequent combined cycle (feeds + image fallback). All state lives
// on the instance; there are no package-level globals, so tests construct
// isolated schedulers freely.
type Scheduler struct {
	driver       ports.TimerDriver
	runner       ports.CycleRunner
	feedOnlySpec string
	fullSpec     string
	logger       *slog.Logger

	mu      sync.Mutex
	enabled bool
	lastRun *time.Time
	tasks   []ports.TaskID
}

// NewScheduler wires the timer driver to the cycle runner.
func NewScheduler(driver ports.TimerDriver, runner ports.CycleRunner, feedOnlySpec, fullSpec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		driver:       driver,
		runner:       runner,
		feedOnlySpec: feedOnlySpec,
		fullSpec:     fullSpec,
		logger:       logger,
	}
}

// Enable registers both cadences and starts the timers. Enabling an already
// enabled scheduler is a no-op; no duplicate timers are ever registered.
func (s *Scheduler) Enable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		return nil
	}

	feedTask, err := s.driver.Schedule(s.feedOnlySpec, func() {
		s.runScheduled(ctx, false)
	})
	if err != nil {
		return fmt.Errorf("schedule feed-only cycle: %w", err)
	}

	fullTask, err := s.driver.Schedule(s.fullSpec, func() {
		s.runScheduled(ctx, true)
	})
	if err != nil {
		s.driver.Remove(feedTask)
		return fmt.Errorf("schedule full cycle: %w", err)
	}

	s.tasks = []ports.TaskID{feedTask, fullTask}
	s.driver.Start()
	s.enabled = true

	s.log().Info("auto sync enabled", "feed_only", s.feedOnlySpec, "full", s.fullSpec)
	return nil
}

// Disable cancels future firings and clears the task registry. An in-flight
// cycle runs to completion. Disabling twice is a no-op.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}

	for _, id := range s.tasks {
		s.driver.Remove(id)
	}
	s.tasks = nil
	s.driver.Stop()
	s.enabled = false

	s.log().Info("auto sync disabled")
}

// TriggerNow runs one full cycle immediately, outside the timer cadence, and
// returns its summary synchronously.
func (s *Scheduler) TriggerNow(ctx context.Context) (domain.CycleSummary, error) {
	summary, err := s.runner.RunFullCycle(ctx)
	if err == nil {
		s.markRun()
	}
	return summary, err
}

// Status snapshots the scheduler for the ops surface.
func (s *Scheduler) Status() domain.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.SchedulerStatus{
		Enabled:     s.enabled,
		LastRun:     s.lastRun,
		ActiveTasks: len(s.tasks),
	}

	var next time.Time
	for _, id := range s.tasks {
		if t := s.driver.Next(id); !t.IsZero() && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	if !next.IsZero() {
		status.NextRun = &next
	}

	return status
}

func (s *Scheduler) runScheduled(ctx context.Context, full bool) {
	var (
		summary domain.CycleSummary
		err     error
	)
	if full {
		summary, err = s.runner.RunFullCycle(ctx)
	} else {
		summary, err = s.runner.RunFeedOnlyCycle(ctx)
	}

	switch {
	case errors.Is(err, domain.ErrCycleInFlight):
		s.log().Info("cycle skipped, another is in flight", "full", full)
		return
	case err != nil:
		s.log().Error("scheduled cycle failed", "full", full, "error", err)
		return
	}

	s.markRun()
	s.log().Info("scheduled cycle finished",
		"full", full,
		"saved", summary.Saved,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
	)
}

func (s *Scheduler) markRun() {
	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
