// Package scheduler runs periodic housekeeping on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"nowas_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// New creates a scheduler. A panicking job is logged and the runner keeps going.
func New(log *logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:  log,
	}
}

// Add registers job under spec (standard five-field cron or @every).
func (s *Scheduler) Add(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { job.Run(context.Background()) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), spec, err)
	}
	s.log.Info("housekeeping job scheduled", "job", job.Name(), "spec", spec)
	return nil
}

// Run starts the runner and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
