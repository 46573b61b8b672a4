package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors returned by the scheduler and runner.
var (
	// ErrInvalidConcurrency is returned when constructing a Scheduler with
	// a concurrency limit below one.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

	// ErrQueueFull is returned by Submit when the wait queue has reached
	// its configured capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrSchedulerClosed is returned by Submit after Close has been called,
	// and settles queued handles that were drained during shutdown.
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrTaskCanceled settles the handle of a task canceled while still
	// queued, before its operation ever started.
	ErrTaskCanceled = errors.New("task canceled before execution")

	// ErrUnknownKind is returned when no task factory is registered for
	// a requested job kind.
	ErrUnknownKind = errors.New("unknown job kind")

	// ErrNilOperation is returned by Submit when given a nil operation.
	ErrNilOperation = errors.New("operation must not be nil")
)

// Operation is one unit of asynchronous work. It receives a context that is
// canceled when the task is canceled while running or when the scheduler
// shuts down abruptly; it returns a value or an error, never both.
type Operation func(ctx context.Context) (any, error)

// Task represents a unit of background work tied to a persisted job record.
type Task interface {
	// ID returns the job ID this task executes.
	ID() uuid.UUID

	// Kind returns the job kind identifier.
	Kind() string

	// Payload returns the job data as a byte slice.
	Payload() []byte

	// Execute runs the task logic and returns its result.
	Execute(ctx context.Context) (any, error)
}
