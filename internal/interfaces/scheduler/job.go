package scheduler

import "context"

// Job is a unit of background work processed by the worker pool.
type Job interface {
	// Execute runs the job. The context carries the pool's cancellation
	// and a per-job timeout.
	Execute(ctx context.Context) error

	// UserID identifies the user the job belongs to, for logging.
	UserID() string

	// Description is a human-readable summary of the job.
	Description() string
}
