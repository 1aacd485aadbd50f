package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingMaintainer struct {
	calls atomic.Int32
	err   error
}

func (m *countingMaintainer) Maintain(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func TestMaintenanceScheduler_EmptySchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&countingMaintainer{}, "", nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not run without a schedule")
	}
	if s.NextRun() != nil {
		t.Error("expected no next run")
	}
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&countingMaintainer{}, "not a cron", nil)

	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewMaintenanceScheduler(&countingMaintainer{}, "0 4 * * *", nil)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected scheduler to be running")
	}
	if s.NextRun() == nil {
		t.Error("expected a next run time")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped")
	}
	// Stopping twice is harmless.
	s.Stop()
}

func TestMaintenanceScheduler_RunOnce(t *testing.T) {
	m := &countingMaintainer{}
	s := NewMaintenanceScheduler(m, "0 4 * * *", nil)

	s.RunOnce(context.Background())
	m.err = errors.New("disk full")
	s.RunOnce(context.Background())

	if m.calls.Load() != 2 {
		t.Errorf("expected 2 maintenance calls, got %d", m.calls.Load())
	}
}
