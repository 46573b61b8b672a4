package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tmarkham/schedq/internal/domain"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// JobOutcome carries the terminal result of a job execution. Exactly one
// of Result and ErrorMessage is meaningful, matching the job status.
type JobOutcome struct {
	Result       json.RawMessage
	ErrorMessage string
}

// JobStore defines the interface for persisting jobs and their lifecycle
// transitions.
type JobStore interface {
	// SaveJob persists a new job record.
	SaveJob(ctx context.Context, job *domain.Job) error

	// UpdateJobStatus transitions a job to the given status. The outcome
	// may be nil for non-terminal transitions.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, outcome *JobOutcome) error

	// GetJob retrieves a job by ID. Returns ErrJobNotFound if it does
	// not exist.
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)

	// ListJobsByStatus retrieves jobs in the given status, oldest first.
	// If olderThan is non-zero, only jobs whose last update is older than
	// the given duration are returned.
	ListJobsByStatus(ctx context.Context, status domain.JobStatus, olderThan time.Duration) ([]*domain.Job, error)
}
