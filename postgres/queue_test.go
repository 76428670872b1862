package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobRowColumns = []string{
	"id", "queue_name", "job_type", "ordering_key", "payload", "status",
	"max_attempts", "attempt_count", "scheduled_at", "created_at",
	"started_at", "completed_at", "error_message", "worker_id",
}

func TestQueue_Enqueue(t *testing.T) {
	db, mock := newTestDB(t)

	job := &propinspect.Job{JobType: propinspect.JobTypeDeficiencySync, OrderingKey: "insp-1", Payload: []byte(`{}`)}
	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(pgxmock.AnyArg(), propinspect.QueueDefault, propinspect.JobTypeDeficiencySync, "insp-1",
			[]byte(`{}`), "pending", 2, 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, db.Queue.Enqueue(context.Background(), job, propinspect.WithMaxAttempts(2)))
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_Dequeue(t *testing.T) {
	db, mock := newTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("(?s)UPDATE jobs.+NOT EXISTS.+FOR UPDATE SKIP LOCKED").
		WithArgs("running", pgxmock.AnyArg(), "worker-1", propinspect.QueueDefault, "pending").
		WillReturnRows(pgxmock.NewRows(jobRowColumns).AddRow(
			id, propinspect.QueueDefault, propinspect.JobTypeDeficiencySync, "insp-1", []byte(`{}`), "running",
			5, 1, started, started, &started, nil, "", "worker-1",
		))

	job, err := db.Queue.Dequeue(ctx, propinspect.QueueDefault, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, propinspect.JobStatusRunning, job.Status)
	assert.Equal(t, "insp-1", job.OrderingKey)
	assert.Equal(t, 1, job.AttemptCount)
	require.NotNil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)

	mock.ExpectQuery("UPDATE jobs").WillReturnError(pgx.ErrNoRows)
	job, err = db.Queue.Dequeue(ctx, propinspect.QueueDefault, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_Fail(t *testing.T) {
	t.Run("retries with backoff", func(t *testing.T) {
		db, mock := newTestDB(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT attempt_count, max_attempts FROM jobs").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"attempt_count", "max_attempts"}).AddRow(1, 5))
		mock.ExpectExec("UPDATE jobs SET status = .+ scheduled_at").
			WithArgs("pending", pgxmock.AnyArg(), "boom", id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, db.Queue.Fail(context.Background(), id, "boom"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("out of attempts", func(t *testing.T) {
		db, mock := newTestDB(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT attempt_count, max_attempts FROM jobs").
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"attempt_count", "max_attempts"}).AddRow(5, 5))
		mock.ExpectExec("UPDATE jobs SET status = .+ completed_at").
			WithArgs("failed", pgxmock.AnyArg(), "boom", id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, db.Queue.Fail(context.Background(), id, "boom"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueue_GetJobNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	id := uuid.New()

	mock.ExpectQuery("FROM jobs WHERE id").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := db.Queue.GetJob(context.Background(), id)
	assert.True(t, propinspect.IsErrorCode(err, propinspect.ENOTFOUND))
	assert.NoError(t, mock.ExpectationsWereMet())
}
