package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/platform/logger"
	"github.com/tmarkham/schedq/internal/store"
)

// JobStore implements the store.JobStore interface using PostgreSQL.
type JobStore struct {
	db store.DBTX

	// pool is the underlying connection pool, used to open transactions.
	// It is nil for transaction-scoped stores returned by WithTx.
	pool *sql.DB
}

// Ensure JobStore implements store.JobStore
var _ store.JobStore = (*JobStore)(nil)

// NewJobStore creates a new PostgreSQL-backed JobStore.
func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{
		db:   db,
		pool: db,
	}
}

// WithTx returns a new JobStore that runs all operations on the provided
// transaction. The transaction is created and managed by the caller.
func (s *JobStore) WithTx(tx *sql.Tx) *JobStore {
	return &JobStore{
		db: tx,
	}
}

// SaveJob persists a new job record.
func (s *JobStore) SaveJob(ctx context.Context, job *domain.Job) error {
	log := logger.FromContext(ctx)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO jobs (id, kind, payload, status, error_message, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Kind,
		[]byte(job.Payload),
		job.Status,
		job.Error,
		[]byte(job.Result),
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID,
			"job_kind", job.Kind,
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", MapError(err))
	}

	return nil
}

// UpdateJobStatus transitions a job to the given status and records the
// outcome, if any. Terminal transitions run inside a transaction that
// locks the row first, so a settled job can never be overwritten.
func (s *JobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status domain.JobStatus,
	outcome *store.JobOutcome,
) error {
	if status.IsTerminal() && s.pool != nil {
		return store.RunInTransaction(ctx, s.pool, func(ctx context.Context, tx *sql.Tx) error {
			var current domain.JobStatus
			row := tx.QueryRowContext(ctx,
				`SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
			if err := row.Scan(&current); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return store.ErrJobNotFound
				}
				return fmt.Errorf("failed to lock job row: %w", MapError(err))
			}
			if current.IsTerminal() {
				return fmt.Errorf("%w: job %s is already %s",
					store.ErrUpdateFailed, jobID, current)
			}
			return s.WithTx(tx).execStatusUpdate(ctx, jobID, status, outcome)
		})
	}

	return s.execStatusUpdate(ctx, jobID, status, outcome)
}

// execStatusUpdate writes the status change on the store's current
// connection or transaction.
func (s *JobStore) execStatusUpdate(
	ctx context.Context,
	jobID uuid.UUID,
	status domain.JobStatus,
	outcome *store.JobOutcome,
) error {
	log := logger.FromContext(ctx)

	var errorMsg string
	var result []byte
	if outcome != nil {
		errorMsg = outcome.ErrorMessage
		result = []byte(outcome.Result)
	}

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, result = $3, updated_at = $4
		WHERE id = $5
	`

	res, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		result,
		time.Now().UTC(),
		jobID,
	)

	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", MapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			"job_id", jobID,
			"error", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no job found with ID to update status",
			"job_id", jobID)
		return store.ErrJobNotFound
	}

	return nil
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT id, kind, payload, status, error_message, result, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, jobID)

	job, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}

	return job, nil
}

// ListJobsByStatus retrieves jobs in the given status, oldest first.
func (s *JobStore) ListJobsByStatus(
	ctx context.Context,
	status domain.JobStatus,
	olderThan time.Duration,
) ([]*domain.Job, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, kind, payload, status, error_message, result, created_at, updated_at
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, kind, payload, status, error_message, result, created_at, updated_at
			FROM jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query jobs by status: %w", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			log.Error("failed to scan job row",
				"status", status,
				"error", err)
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// scanJob reads one job row using the provided scan function, shared
// between single-row and multi-row queries.
func scanJob(scan func(dest ...any) error) (*domain.Job, error) {
	var job domain.Job
	var payload, result []byte
	var errorMessage sql.NullString

	if err := scan(
		&job.ID,
		&job.Kind,
		&payload,
		&job.Status,
		&errorMessage,
		&result,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		job.Payload = payload
	}
	if len(result) > 0 {
		job.Result = result
	}
	job.Error = errorMessage.String

	return &job, nil
}
