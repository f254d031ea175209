package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic check and housekeeping ticks.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a Scheduler running the engine's check cycle and
// throttle housekeeping on their own intervals.
func NewScheduler(
	eng *Engine,
	checkInterval time.Duration,
	housekeepingInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if _, err := c.AddFunc(
		"@every "+checkInterval.String(),
		s.runCheck,
	); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(
		"@every "+housekeepingInterval.String(),
		s.runHousekeeping,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runCheck() {
	ctx := context.Background()
	s.log.Info("scheduled product check starting")
	if err := s.engine.RunCheck(ctx); err != nil {
		s.log.Error("scheduled product check failed", "error", err)
	}
}

func (s *Scheduler) runHousekeeping() {
	s.log.Debug("scheduled throttle housekeeping starting")
	s.engine.RunHousekeeping()
}
