package jobs

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Recomputer rebuilds every user's score snapshot from the ledger.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// RecomputeJob repairs snapshots left stale by failed refreshes and lets
// current streaks decay for users who stopped posting.
type RecomputeJob struct {
	recomputer Recomputer
	schedule   string
}

func NewRecomputeJob(recomputer Recomputer, schedule string) *RecomputeJob {
	return &RecomputeJob{recomputer: recomputer, schedule: schedule}
}

func (j *RecomputeJob) Name() string { return "snapshot-recompute" }

func (j *RecomputeJob) Schedule() string { return j.schedule }

func (j *RecomputeJob) Execute(ctx context.Context) error {
	processed, err := j.recomputer.RecomputeAll(ctx)
	log.WithField("users", processed).Info("snapshots recomputed")
	return err
}
