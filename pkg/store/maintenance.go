package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// MaintenanceScheduler runs Maintainer.Maintain on a cron schedule.
type MaintenanceScheduler struct {
	target   Maintainer
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewMaintenanceScheduler creates a scheduler for target. An empty schedule
// makes Start a no-op.
func NewMaintenanceScheduler(target Maintainer, schedule string, logger *slog.Logger) *MaintenanceScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceScheduler{
		target:   target,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "store.maintenance"),
	}
}

// Start schedules maintenance using a standard five-field cron expression:
//
//   - "0 4 * * *"    - Daily at 4 AM
//   - "*/30 * * * *" - Every 30 minutes
//
// The scheduler stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("maintenance schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs one maintenance cycle and logs the outcome.
func (s *MaintenanceScheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	if err := s.target.Maintain(ctx); err != nil {
		s.logger.Error("scheduled maintenance failed", "error", err)
		return
	}
	s.logger.Debug("scheduled maintenance completed", "duration", time.Since(start))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run, or nil when not scheduled.
func (s *MaintenanceScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
