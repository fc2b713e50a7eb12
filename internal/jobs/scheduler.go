package jobs

import (
	"context"
	"fmt"
	"time"

	"anoa.com/contentscore/pkg/apperror"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler registers jobs with cron and can run them on demand.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// NewScheduler evaluates schedules in loc. Each scheduled run gets timeout.
func NewScheduler(loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		log.WithField("job", job.Name()).Info("registered on-demand job")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.execute(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	log.WithFields(log.Fields{"job": job.Name(), "schedule": schedule}).Info("job scheduled")
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	logger := log.WithField("job", job.Name())
	logger.Info("job started")

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		logger.WithError(err).Error("job failed")
		return err
	}

	logger.WithField("duration", time.Since(start).String()).Info("job completed")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.WithField("jobs", len(s.jobs)).Info("scheduler started")
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	log.Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return apperror.NotFound(fmt.Sprintf("job %q not registered", name))
}

func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
