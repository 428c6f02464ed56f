package scheduler

import (
	"context"

	"nowas_backend/platform/logger"
)

// DefaultHousekeepingSpec runs every housekeeping job every ten minutes.
const DefaultHousekeepingSpec = "@every 10m"

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Purger drops expired entries and reports how many went.
type Purger interface {
	Purge() int
}

// Resetter forgets all tracked state.
type Resetter interface {
	Reset()
}

// PurgeJob removes expired entries from an in-memory store.
type PurgeJob struct {
	name   string
	target Purger
	log    *logger.Logger
}

// NewPurgeJob wraps target. name shows up in the logs.
func NewPurgeJob(name string, target Purger, log *logger.Logger) *PurgeJob {
	return &PurgeJob{name: name, target: target, log: log}
}

func (j *PurgeJob) Name() string { return j.name }

func (j *PurgeJob) Run(_ context.Context) {
	if j == nil || j.target == nil {
		return
	}
	if purged := j.target.Purge(); purged > 0 {
		j.log.Info("housekeeping purged expired entries", "job", j.name, "purged", purged)
	}
}

// ResetJob clears a limiter whose buckets refill on their own.
type ResetJob struct {
	name   string
	target Resetter
	log    *logger.Logger
}

// NewResetJob wraps target.
func NewResetJob(name string, target Resetter, log *logger.Logger) *ResetJob {
	return &ResetJob{name: name, target: target, log: log}
}

func (j *ResetJob) Name() string { return j.name }

func (j *ResetJob) Run(_ context.Context) {
	if j == nil || j.target == nil {
		return
	}
	j.target.Reset()
	j.log.Debug("housekeeping reset limiter", "job", j.name)
}
