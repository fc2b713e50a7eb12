// Package jobs runs periodic maintenance work on a cron schedule.
package jobs

import "context"

// Job is a unit of scheduled work.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Schedule returns a cron expression (e.g. "5 0 * * *"). An empty string
	// registers the job for on-demand runs only.
	Schedule() string

	Execute(ctx context.Context) error
}
