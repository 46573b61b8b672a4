package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/events"
	"github.com/tmarkham/schedq/internal/store"
	"github.com/tmarkham/schedq/internal/task"
)

// TaskBuilder turns a persisted job kind and payload into an executable
// task. The service uses it to validate submissions before they are saved;
// execution itself happens in the task layer. task.Registry satisfies it.
type TaskBuilder interface {
	// Kinds returns the registered job kinds in sorted order.
	Kinds() []string

	// NewTask builds a task for the given kind and payload.
	NewTask(kind string, jobID uuid.UUID, payload json.RawMessage) (task.Task, error)
}

// JobService provides job submission and retrieval.
type JobService interface {
	// SubmitJob validates the kind and payload, persists a new pending job,
	// and emits a request event that hands the job to the task layer.
	SubmitJob(ctx context.Context, kind string, payload json.RawMessage) (*domain.Job, error)

	// GetJob retrieves a job by its ID.
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)

	// Kinds returns the job kinds this service accepts.
	Kinds() []string
}

// JobServiceError wraps unexpected errors from the job service with the
// failed operation for context.
type JobServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}

type jobServiceImpl struct {
	jobStore store.JobStore
	builder  TaskBuilder
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
// It returns an error if any of the required dependencies are nil.
func NewJobService(
	jobStore store.JobStore,
	builder TaskBuilder,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (JobService, error) {
	if jobStore == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "jobStore cannot be nil"}
	}
	if builder == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "builder cannot be nil"}
	}
	if emitter == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobStore: jobStore,
		builder:  builder,
		emitter:  emitter,
		logger:   logger.With("component", "job_service"),
	}, nil
}

// SubmitJob creates a pending job record and emits its request event.
// The payload is validated up front by building a throwaway task, so a
// malformed submission is rejected before anything is persisted.
func (s *jobServiceImpl) SubmitJob(
	ctx context.Context,
	kind string,
	payload json.RawMessage,
) (*domain.Job, error) {
	job, err := domain.NewJob(kind, payload)
	if err != nil {
		s.logger.Debug("rejected job submission", "job_kind", kind, "error", err)
		return nil, &JobServiceError{Operation: "submit_job", Message: "invalid job", Err: err}
	}

	if _, err := s.builder.NewTask(kind, job.ID, payload); err != nil {
		s.logger.Debug("rejected job submission",
			"job_kind", kind,
			"job_id", job.ID,
			"error", err)
		if errors.Is(err, task.ErrUnknownKind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownJobKind, kind)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if err := s.jobStore.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			"job_kind", kind,
			"job_id", job.ID,
			"error", err)
		return nil, &JobServiceError{Operation: "submit_job", Message: "failed to save job", Err: err}
	}

	event := events.NewJobRequestEvent(job.ID, job.Kind, job.Payload)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit job request event",
			"job_id", job.ID,
			"event_id", event.ID,
			"error", err)
		return nil, &JobServiceError{Operation: "submit_job", Message: "failed to emit event", Err: err}
	}

	s.logger.Info("job submitted",
		"job_id", job.ID,
		"job_kind", job.Kind,
		"event_id", event.ID)

	return job, nil
}

// GetJob retrieves a job by its ID.
func (s *jobServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to retrieve job", "job_id", jobID, "error", err)
		return nil, &JobServiceError{Operation: "get_job", Message: "failed to retrieve job", Err: err}
	}

	return job, nil
}

// Kinds returns the job kinds this service accepts.
func (s *jobServiceImpl) Kinds() []string {
	return s.builder.Kinds()
}
