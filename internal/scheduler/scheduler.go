// Package scheduler provides cron-based job scheduling for the signage engine.
//
// Background jobs (rotation refresh, reminder sweeps, poll rotation) register
// here with a cron expression or an @every descriptor.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow) plus
	// descriptors so jobs can use @every intervals; panics in jobs are
	// recovered so one bad tick cannot take the display down.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a named task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(name, expr string, task func()) error {
	id, err := s.cron.AddFunc(expr, task)
	if err != nil {
		slog.Error("Scheduler.AddJob: invalid expression", "job", name, "expr", expr, "error", err)
		return err
	}
	slog.Debug("Scheduler.AddJob: job registered", "job", name, "expr", expr, "entryID", id)
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Debug("Scheduler.Stop: scheduler stopped")
}
