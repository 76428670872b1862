package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Compile-time interface check
var _ propinspect.Queue = (*Queue)(nil)

// Queue is a PostgreSQL-backed job queue implementation.
type Queue struct {
	db *DB
}

const jobColumns = `id, queue_name, job_type, ordering_key, payload, status,
	max_attempts, attempt_count, scheduled_at, created_at,
	started_at, completed_at, COALESCE(error_message, ''), COALESCE(worker_id, '')`

// Enqueue adds a job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job *propinspect.Job, opts ...propinspect.EnqueueOption) error {
	if err := enqueue(ctx, q.db.pool, job, time.Now(), opts...); err != nil {
		return err
	}

	q.db.logger.Debug("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.JobType),
		slog.String("queue", job.QueueName))
	return nil
}

// enqueue inserts a job using exec, so callers can enqueue inside their
// own transaction.
func enqueue(ctx context.Context, exec execer, job *propinspect.Job, now time.Time, opts ...propinspect.EnqueueOption) error {
	propinspect.PrepareJob(job, now, opts...)

	_, err := exec.Exec(ctx, `
		INSERT INTO jobs (
			id, queue_name, job_type, ordering_key, payload, status,
			max_attempts, attempt_count, scheduled_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		job.ID,
		job.QueueName,
		job.JobType,
		job.OrderingKey,
		job.Payload,
		string(job.Status),
		job.MaxAttempts,
		job.AttemptCount,
		job.ScheduledAt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueueing job: %w", err)
	}
	return nil
}

// Dequeue claims the oldest runnable job of a queue. A job whose ordering
// key is shared with an older pending or running job waits for it.
func (q *Queue) Dequeue(ctx context.Context, queueName, workerID string) (*propinspect.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1, started_at = $2, attempt_count = attempt_count + 1, worker_id = $3
		WHERE id = (
			SELECT j.id FROM jobs j
			WHERE j.queue_name = $4
			AND j.status = $5
			AND j.scheduled_at <= $2
			AND NOT EXISTS (
				SELECT 1 FROM jobs older
				WHERE j.ordering_key <> ''
				AND older.ordering_key = j.ordering_key
				AND older.seq < j.seq
				AND older.status IN ($5, $1)
			)
			ORDER BY j.seq
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	now := time.Now()
	job, err := scanJob(q.db.pool.QueryRow(ctx, query,
		string(propinspect.JobStatusRunning),
		now,
		workerID,
		queueName,
		string(propinspect.JobStatusPending),
	))
	if err != nil {
		if isNoRows(err) {
			return nil, nil // No jobs available
		}
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}
	return job, nil
}

// Complete marks a job as completed.
func (q *Queue) Complete(ctx context.Context, jobID uuid.UUID) error {
	_, err := q.db.pool.Exec(ctx, `
		UPDATE jobs SET status = $1, completed_at = $2 WHERE id = $3
	`, string(propinspect.JobStatusCompleted), time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	q.db.logger.Debug("job completed", slog.String("job_id", jobID.String()))
	return nil
}

// Fail records a failed attempt. The job is retried after RetryDelay
// until it has used MaxAttempts, then marked failed.
func (q *Queue) Fail(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	var attempts, maxAttempts int
	err := q.db.pool.QueryRow(ctx, `SELECT attempt_count, max_attempts FROM jobs WHERE id = $1`, jobID).
		Scan(&attempts, &maxAttempts)
	if err != nil {
		if isNoRows(err) {
			return propinspect.NotFound("Job not found")
		}
		return fmt.Errorf("failing job: %w", err)
	}

	now := time.Now()
	if attempts >= maxAttempts {
		_, err = q.db.pool.Exec(ctx, `
			UPDATE jobs SET status = $1, completed_at = $2, error_message = $3 WHERE id = $4
		`, string(propinspect.JobStatusFailed), now, errMsg, jobID)
	} else {
		_, err = q.db.pool.Exec(ctx, `
			UPDATE jobs SET status = $1, scheduled_at = $2, error_message = $3 WHERE id = $4
		`, string(propinspect.JobStatusPending), now.Add(propinspect.RetryDelay(attempts)), errMsg, jobID)
	}
	if err != nil {
		return fmt.Errorf("failing job: %w", err)
	}

	q.db.logger.Debug("job failed",
		slog.String("job_id", jobID.String()),
		slog.Int("attempt", attempts),
		slog.String("error", errMsg))
	return nil
}

// GetJob retrieves a job by its ID.
func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*propinspect.Job, error) {
	job, err := scanJob(q.db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
	if err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Job not found")
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*propinspect.Job, error) {
	job := &propinspect.Job{}
	var status string
	err := row.Scan(
		&job.ID,
		&job.QueueName,
		&job.JobType,
		&job.OrderingKey,
		&job.Payload,
		&status,
		&job.MaxAttempts,
		&job.AttemptCount,
		&job.ScheduledAt,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.ErrorMessage,
		&job.WorkerID,
	)
	if err != nil {
		return nil, err
	}
	job.Status = propinspect.JobStatus(status)
	return job, nil
}
