package propinspect

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queue defines operations for a job queue.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job *Job, opts ...EnqueueOption) error

	// Dequeue claims the next runnable job from a queue for a worker.
	// A job is not runnable while an older job with the same ordering key
	// is still pending or running. Returns nil if no jobs are available.
	Dequeue(ctx context.Context, queueName, workerID string) (*Job, error)

	// Complete marks a job as completed.
	Complete(ctx context.Context, jobID uuid.UUID) error

	// Fail records a failed attempt. The job is rescheduled with backoff
	// until it runs out of attempts, then marked failed.
	Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error

	// GetJob retrieves a job by its ID.
	// Returns ENOTFOUND if the job does not exist.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)
}

// Job represents a background job.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	QueueName    string     `json:"queueName"`
	JobType      string     `json:"jobType"`
	OrderingKey  string     `json:"orderingKey,omitempty"`
	Payload      []byte     `json:"payload"`
	Status       JobStatus  `json:"status"`
	MaxAttempts  int        `json:"maxAttempts"`
	AttemptCount int        `json:"attemptCount"`
	ScheduledAt  time.Time  `json:"scheduledAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	WorkerID     string     `json:"workerId,omitempty"`
}

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal returns true if the job is in a terminal state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job types.
const (
	JobTypeDeficiencySync = "deficiency_sync"
)

// Queue names.
const (
	QueueDefault = "default"
)

// DefaultMaxAttempts is used when a job does not set MaxAttempts.
const DefaultMaxAttempts = 5

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*Job)

// WithMaxAttempts sets the maximum retry attempts.
func WithMaxAttempts(attempts int) EnqueueOption {
	return func(j *Job) {
		j.MaxAttempts = attempts
	}
}

// WithScheduledAt schedules the job for a specific time.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(j *Job) {
		j.ScheduledAt = t
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(d time.Duration) EnqueueOption {
	return func(j *Job) {
		j.ScheduledAt = time.Now().Add(d)
	}
}

// PrepareJob applies options and fills in the remaining defaults. Queue
// implementations call it from Enqueue.
func PrepareJob(job *Job, now time.Time, opts ...EnqueueOption) {
	for _, opt := range opts {
		opt(job)
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.QueueName == "" {
		job.QueueName = QueueDefault
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = now
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = DefaultMaxAttempts
	}
}

// RetryDelay returns the backoff before the next attempt of a job that has
// failed attempt times: 2^attempt seconds, capped at ten minutes.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		return 10 * time.Minute
	}
	return min(time.Duration(1<<attempt)*time.Second, 10*time.Minute)
}

// QueueConfig holds configuration for the job queue workers.
type QueueConfig struct {
	// WorkerCount is the number of concurrent workers.
	WorkerCount int

	// PollInterval is how often to poll for jobs.
	PollInterval time.Duration

	// JobTimeout is the maximum time a job can run.
	JobTimeout time.Duration

	// ShutdownTimeout bounds how long Stop waits for running jobs.
	ShutdownTimeout time.Duration
}

// DefaultQueueConfig returns the default queue configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		WorkerCount:     3,
		PollInterval:    time.Second,
		JobTimeout:      60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// JobHandler handles processing of a specific job type.
type JobHandler interface {
	// Handle processes a job.
	// Return nil on success, or an error to trigger retry logic.
	Handle(ctx context.Context, job *Job) error
}

// JobHandlerFunc is an adapter to allow ordinary functions as JobHandlers.
type JobHandlerFunc func(ctx context.Context, job *Job) error

// Handle implements JobHandler.
func (f JobHandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
