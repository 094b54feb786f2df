// Package scheduler runs periodic maintenance jobs on cron expressions.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec runs the expired-session sweep every five minutes.
const DefaultSweepSpec = "*/5 * * * *"

// Sweeper deactivates expired sessions.
type Sweeper interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Standard 5-field parser (min, hour, dom, month, dow); panics in jobs are recovered.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// ScheduleSweep runs sweeper on expr until ctx is done.
func (s *Scheduler) ScheduleSweep(ctx context.Context, expr string, sweeper Sweeper) error {
	return s.AddJob(expr, func() { Sweep(ctx, sweeper) })
}

// Sweep runs one expired-session sweep.
func Sweep(ctx context.Context, sweeper Sweeper) {
	if ctx.Err() != nil {
		return
	}
	n, err := sweeper.DeactivateExpired(ctx)
	if err != nil {
		slog.Error("Scheduler.Sweep: deactivate expired sessions failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Scheduler.Sweep: expired sessions deactivated", "count", n)
	}
}

// Run blocks until ctx is done, then stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
