package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ propinspect.Queue = (*Queue)(nil)

// Queue is a mock implementation of propinspect.Queue. Without Fn
// overrides it behaves like the postgres queue, in memory.
type Queue struct {
	EnqueueFn  func(ctx context.Context, job *propinspect.Job, opts ...propinspect.EnqueueOption) error
	DequeueFn  func(ctx context.Context, queueName, workerID string) (*propinspect.Job, error)
	CompleteFn func(ctx context.Context, jobID uuid.UUID) error
	FailFn     func(ctx context.Context, jobID uuid.UUID, errMsg string) error
	GetJobFn   func(ctx context.Context, jobID uuid.UUID) (*propinspect.Job, error)

	// In-memory job storage for testing, in enqueue order.
	mu    sync.RWMutex
	order []uuid.UUID
	jobs  map[uuid.UUID]*propinspect.Job
}

// NewQueue creates a new mock queue with initialized storage.
func NewQueue() *Queue {
	return &Queue{
		jobs: make(map[uuid.UUID]*propinspect.Job),
	}
}

func (q *Queue) Enqueue(ctx context.Context, job *propinspect.Job, opts ...propinspect.EnqueueOption) error {
	if q.EnqueueFn != nil {
		return q.EnqueueFn(ctx, job, opts...)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	propinspect.PrepareJob(job, time.Now(), opts...)
	if _, ok := q.jobs[job.ID]; !ok {
		q.order = append(q.order, job.ID)
	}
	c := *job
	q.jobs[job.ID] = &c
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, queueName, workerID string) (*propinspect.Job, error) {
	if q.DequeueFn != nil {
		return q.DequeueFn(ctx, queueName, workerID)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	blocked := make(map[string]bool)
	for _, id := range q.order {
		job := q.jobs[id]
		if job.QueueName != queueName || job.Status.IsTerminal() {
			continue
		}
		if job.OrderingKey != "" && blocked[job.OrderingKey] {
			continue
		}
		if job.OrderingKey != "" {
			blocked[job.OrderingKey] = true
		}
		if job.Status != propinspect.JobStatusPending || job.ScheduledAt.After(now) {
			continue
		}

		job.Status = propinspect.JobStatusRunning
		job.AttemptCount++
		job.WorkerID = workerID
		job.StartedAt = &now
		c := *job
		return &c, nil
	}
	return nil, nil
}

func (q *Queue) Complete(ctx context.Context, jobID uuid.UUID) error {
	if q.CompleteFn != nil {
		return q.CompleteFn(ctx, jobID)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return propinspect.NotFound("Job not found")
	}
	job.Status = propinspect.JobStatusCompleted
	now := time.Now()
	job.CompletedAt = &now
	return nil
}

func (q *Queue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	if q.FailFn != nil {
		return q.FailFn(ctx, jobID, errMsg)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return propinspect.NotFound("Job not found")
	}
	job.ErrorMessage = errMsg
	now := time.Now()
	if job.AttemptCount >= job.MaxAttempts {
		job.Status = propinspect.JobStatusFailed
		job.CompletedAt = &now
		return nil
	}
	job.Status = propinspect.JobStatusPending
	job.ScheduledAt = now.Add(propinspect.RetryDelay(job.AttemptCount))
	return nil
}

func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*propinspect.Job, error) {
	if q.GetJobFn != nil {
		return q.GetJobFn(ctx, jobID)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil, propinspect.NotFound("Job not found")
	}
	c := *job
	return &c, nil
}

// Reset clears all jobs from the mock queue.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.order = nil
	q.jobs = make(map[uuid.UUID]*propinspect.Job)
}

// AllJobs returns copies of all jobs in enqueue order.
func (q *Queue) AllJobs() []*propinspect.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*propinspect.Job, 0, len(q.order))
	for _, id := range q.order {
		c := *q.jobs[id]
		result = append(result, &c)
	}
	return result
}

// JobsByType returns all jobs of a specific type in enqueue order.
func (q *Queue) JobsByType(jobType string) []*propinspect.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []*propinspect.Job
	for _, id := range q.order {
		if job := *q.jobs[id]; job.JobType == jobType {
			result = append(result, &job)
		}
	}
	return result
}
