// Package queue runs background jobs from a propinspect.Queue.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/propinspect"
)

// Observer is notified when a job finishes an attempt.
type Observer interface {
	ObserveJob(jobType, outcome string, duration time.Duration)
}

// Job attempt outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// WorkerPool manages a pool of workers that process jobs from queues
type WorkerPool struct {
	queue    propinspect.Queue
	logger   *slog.Logger
	config   propinspect.QueueConfig
	observer Observer
	handlers map[string]propinspect.JobHandler // job_type -> handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue propinspect.Queue, logger *slog.Logger, config propinspect.QueueConfig) *WorkerPool {
	return &WorkerPool{
		queue:    queue,
		logger:   logger,
		config:   config,
		handlers: make(map[string]propinspect.JobHandler),
	}
}

// SetObserver sets the observer notified after each job attempt.
func (wp *WorkerPool) SetObserver(o Observer) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.observer = o
}

// RegisterHandler registers a handler for a specific job type
func (wp *WorkerPool) RegisterHandler(jobType string, handler propinspect.JobHandler) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.handlers[jobType] = handler
	wp.logger.Info("registered job handler",
		slog.String("job_type", jobType),
	)
}

// Start starts the worker pool with the configured number of workers.
// Each worker polls the queues in the order given.
func (wp *WorkerPool) Start(ctx context.Context, queueNames []string) error {
	wp.mu.Lock()
	if wp.cancel != nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.mu.Unlock()

	queueNames = slices.Clone(queueNames)
	for i := 0; i < wp.config.WorkerCount; i++ {
		wp.wg.Add(1)
		workerID := fmt.Sprintf("worker-%d", i+1)

		go wp.worker(workerCtx, workerID, queueNames)
	}

	wp.logger.Info("worker pool started",
		slog.Int("worker_count", wp.config.WorkerCount),
		slog.Any("queues", queueNames),
	)

	return nil
}

// Stop gracefully stops the worker pool
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.cancel == nil {
		wp.mu.Unlock()
		return fmt.Errorf("worker pool not started")
	}
	cancel := wp.cancel
	wp.cancel = nil
	wp.mu.Unlock()

	wp.logger.Info("stopping worker pool")

	cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(wp.config.ShutdownTimeout):
		wp.logger.Warn("worker pool shutdown timeout",
			slog.Duration("timeout", wp.config.ShutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout after %v", wp.config.ShutdownTimeout)
	}
}

// worker is the main worker loop
func (wp *WorkerPool) worker(ctx context.Context, workerID string, queueNames []string) {
	defer wp.wg.Done()

	wp.logger.Debug("worker started", slog.String("worker_id", workerID))

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wp.logger.Debug("worker stopping", slog.String("worker_id", workerID))
			return

		case <-ticker.C:
			for _, name := range queueNames {
				if err := wp.processNextJob(ctx, workerID, name); err != nil {
					wp.logger.Error("failed to process job",
						slog.String("worker_id", workerID),
						slog.String("queue", name),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// processNextJob attempts to dequeue and process a single job
func (wp *WorkerPool) processNextJob(ctx context.Context, workerID, queueName string) error {
	job, err := wp.queue.Dequeue(ctx, queueName, workerID)
	if err != nil {
		return fmt.Errorf("failed to dequeue job: %w", err)
	}
	if job == nil {
		return nil
	}
	return wp.executeJob(ctx, job)
}

// executeJob runs the job handler and updates the job status
func (wp *WorkerPool) executeJob(ctx context.Context, job *propinspect.Job) error {
	logger := wp.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("type", job.JobType),
	)
	logger.Info("processing job",
		slog.String("queue", job.QueueName),
		slog.String("ordering_key", job.OrderingKey),
		slog.Int("attempt", job.AttemptCount),
	)

	wp.mu.RLock()
	handler, exists := wp.handlers[job.JobType]
	observer := wp.observer
	wp.mu.RUnlock()

	if !exists {
		logger.Error("handler not found")
		return wp.queue.Fail(ctx, job.ID, fmt.Sprintf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, wp.config.JobTimeout)
	defer cancel()
	jobCtx = propinspect.NewContextWithLogger(jobCtx, logger)

	startTime := time.Now()
	err := handler.Handle(jobCtx, job)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error("job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		if observer != nil {
			observer.ObserveJob(job.JobType, OutcomeFailed, duration)
		}
		return wp.queue.Fail(ctx, job.ID, err.Error())
	}

	logger.Info("job completed",
		slog.Duration("duration", duration),
	)
	if observer != nil {
		observer.ObserveJob(job.JobType, OutcomeCompleted, duration)
	}

	return wp.queue.Complete(ctx, job.ID)
}

// GetHandler retrieves a registered handler (for testing)
func (wp *WorkerPool) GetHandler(jobType string) (propinspect.JobHandler, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	handler, exists := wp.handlers[jobType]
	return handler, exists
}
