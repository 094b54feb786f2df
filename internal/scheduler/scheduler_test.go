package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/session"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/testutil"
)

type countingSweeper struct {
	calls int
	err   error
}

func (c *countingSweeper) DeactivateExpired(context.Context) (int64, error) {
	c.calls++
	return 1, c.err
}

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
	if err := s.AddJob("not a cron", func() {}); err == nil {
		t.Error("Expected error for invalid expression")
	}
}

func TestScheduleSweepValidatesExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	sweeper := &countingSweeper{}
	if err := s.ScheduleSweep(context.Background(), DefaultSweepSpec, sweeper); err != nil {
		t.Fatalf("ScheduleSweep failed: %v", err)
	}
	if err := s.ScheduleSweep(context.Background(), "* *", sweeper); err == nil {
		t.Error("expected invalid expression to fail")
	}
}

func TestSweepSkipsCancelledContext(t *testing.T) {
	sweeper := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Sweep(ctx, sweeper)
	if sweeper.calls != 0 {
		t.Errorf("expected no sweep after cancellation, got %d", sweeper.calls)
	}

	failing := &countingSweeper{err: errors.New("db locked")}
	Sweep(context.Background(), failing)
	if failing.calls != 1 {
		t.Errorf("expected one sweep attempt, got %d", failing.calls)
	}
}

func TestSweepDeactivatesExpiredSessions(t *testing.T) {
	st := store.NewInMemoryStore()
	clock := testutil.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	sessions := session.NewManager(st, session.WithClock(clock.Now), session.WithTTL(30*time.Minute))

	ctx := context.Background()
	if _, err := sessions.GetOrCreate(ctx, "18095550100"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	clock.Advance(31 * time.Minute)
	Sweep(ctx, sessions)

	if _, err := st.FindActiveSession(ctx, "18095550100"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected the expired session deactivated, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
