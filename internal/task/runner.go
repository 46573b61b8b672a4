package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/store"
)

// Runner ties the scheduler to the job store. It submits tasks built from
// persisted job records, records every lifecycle transition (running,
// succeeded, failed, canceled) as the task moves through the scheduler,
// and requeues unfinished jobs after a restart.
type Runner struct {
	store    store.JobStore
	sched    *Scheduler
	registry *Registry
	logger   *slog.Logger

	// wg tracks the completion watcher goroutines for Close.
	wg sync.WaitGroup
}

// NewRunner creates a new Runner on top of the given scheduler and store.
func NewRunner(
	jobStore store.JobStore,
	sched *Scheduler,
	registry *Registry,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		store:    jobStore,
		sched:    sched,
		registry: registry,
		logger:   logger.With("component", "runner"),
	}
}

// Submit hands the task to the scheduler and returns its handle. The job
// record must already exist in the store; the runner only records status
// transitions. The store update to running happens inside the operation,
// so it is written when the task is admitted, not when it is queued.
func (r *Runner) Submit(ctx context.Context, t Task) (*Handle, error) {
	logger := r.logger.With(
		"job_id", t.ID(),
		"job_kind", t.Kind(),
	)

	handle, err := r.sched.Submit(ctx, r.wrap(t, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to submit task: %w", err)
	}

	// Watch for settlement on a separate goroutine so terminal status is
	// recorded even when the task is canceled while still queued and the
	// operation never runs.
	r.wg.Add(1)
	go r.watch(t, handle, logger)

	logger.Debug("task submitted")
	return handle, nil
}

// Recover loads unfinished jobs from the store and resubmits them. Jobs
// still marked running were interrupted by a crash; they are reset to
// pending before requeueing. Tasks are rebuilt from their persisted kind
// and payload through the registry.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.ListJobsByStatus(ctx, domain.JobStatusPending, 0)
	if err != nil {
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}

	interrupted, err := r.store.ListJobsByStatus(ctx, domain.JobStatusRunning, 0)
	if err != nil {
		return fmt.Errorf("failed to list running jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"running_count", len(interrupted))

	for _, job := range interrupted {
		if err := r.store.UpdateJobStatus(ctx, job.ID, domain.JobStatusPending, nil); err != nil {
			r.logger.Error("failed to reset interrupted job",
				"job_id", job.ID,
				"job_kind", job.Kind,
				"error", err)
			continue
		}
		pending = append(pending, job)
	}

	for _, job := range pending {
		t, err := r.registry.NewTask(job.Kind, job.ID, job.Payload)
		if err != nil {
			r.logger.Error("failed to rebuild task for job",
				"job_id", job.ID,
				"job_kind", job.Kind,
				"error", err)
			if errors.Is(err, ErrUnknownKind) {
				// Nothing can ever execute this job; fail it rather
				// than leaving it pending forever.
				outcome := &store.JobOutcome{ErrorMessage: err.Error()}
				if updateErr := r.store.UpdateJobStatus(ctx, job.ID, domain.JobStatusFailed, outcome); updateErr != nil {
					r.logger.Error("failed to mark unrecoverable job as failed",
						"job_id", job.ID,
						"error", updateErr)
				}
			}
			continue
		}

		if _, err := r.Submit(ctx, t); err != nil {
			r.logger.Error("failed to requeue job",
				"job_id", job.ID,
				"job_kind", job.Kind,
				"error", err)
		}
	}

	return nil
}

// Close shuts down the underlying scheduler and waits until all lifecycle
// transitions have been recorded.
func (r *Runner) Close() {
	r.sched.Close()
	r.wg.Wait()
}

// wrap turns a Task into a scheduler Operation that records the transition
// to running before executing.
func (r *Runner) wrap(t Task, logger *slog.Logger) Operation {
	return func(ctx context.Context) (any, error) {
		storeCtx := context.Background()
		if err := r.store.UpdateJobStatus(storeCtx, t.ID(), domain.JobStatusRunning, nil); err != nil {
			logger.Error("failed to update job status to running", "error", err)
		}

		logger.Info("executing job")
		started := time.Now()
		value, err := t.Execute(ctx)
		logger.Info("job finished",
			"duration_ms", time.Since(started).Milliseconds(),
			"failed", err != nil)

		return value, err
	}
}

// watch waits for the handle to settle and records the terminal status.
func (r *Runner) watch(t Task, handle *Handle, logger *slog.Logger) {
	defer r.wg.Done()

	value, err := handle.Wait(context.Background())

	ctx := context.Background()
	switch {
	case err == nil:
		outcome := &store.JobOutcome{Result: marshalResult(value, logger)}
		if updateErr := r.store.UpdateJobStatus(ctx, t.ID(), domain.JobStatusSucceeded, outcome); updateErr != nil {
			logger.Error("failed to update job status to succeeded", "error", updateErr)
		}

	case errors.Is(err, ErrTaskCanceled), errors.Is(err, context.Canceled):
		outcome := &store.JobOutcome{ErrorMessage: err.Error()}
		if updateErr := r.store.UpdateJobStatus(ctx, t.ID(), domain.JobStatusCanceled, outcome); updateErr != nil {
			logger.Error("failed to update job status to canceled", "error", updateErr)
		}

	case errors.Is(err, ErrSchedulerClosed):
		// Shutdown drained the task before it ran. Leave the job pending
		// so the next process recovers and requeues it.
		logger.Info("job requeued for recovery after shutdown")

	default:
		outcome := &store.JobOutcome{ErrorMessage: err.Error()}
		if updateErr := r.store.UpdateJobStatus(ctx, t.ID(), domain.JobStatusFailed, outcome); updateErr != nil {
			logger.Error("failed to update job status to failed", "error", updateErr)
		}
	}
}

// marshalResult serializes a task result for storage. A nil value or a
// marshaling failure yields no stored result rather than a failed job.
func marshalResult(value any, logger *slog.Logger) json.RawMessage {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to marshal job result", "error", err)
		return nil
	}
	return data
}
