// Package memory provides an in-memory implementation of store.JobStore.
// It backs deployments without a configured database and is used as the
// job store in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/store"
)

// JobStore is a thread-safe in-memory job store.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// Ensure JobStore implements store.JobStore
var _ store.JobStore = (*JobStore)(nil)

// New creates an empty in-memory job store.
func New() *JobStore {
	return &JobStore{
		jobs: make(map[uuid.UUID]*domain.Job),
	}
}

// SaveJob persists a new job record.
func (s *JobStore) SaveJob(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return store.ErrDuplicate
	}

	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// UpdateJobStatus transitions a job to the given status.
func (s *JobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status domain.JobStatus,
	outcome *store.JobOutcome,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return store.ErrJobNotFound
	}

	if job.IsTerminal() {
		return fmt.Errorf("%w: job %s is already %s", store.ErrUpdateFailed, jobID, job.Status)
	}

	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	if outcome != nil {
		job.Result = outcome.Result
		job.Error = outcome.ErrorMessage
	}

	return nil
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}

	return cloneJob(job), nil
}

// ListJobsByStatus retrieves jobs in the given status, oldest first.
func (s *JobStore) ListJobsByStatus(
	ctx context.Context,
	status domain.JobStatus,
	olderThan time.Duration,
) ([]*domain.Job, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []*domain.Job
	for _, job := range s.jobs {
		if job.Status != status {
			continue
		}
		if olderThan > 0 && !job.UpdatedAt.Before(cutoff) {
			continue
		}
		jobs = append(jobs, cloneJob(job))
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	return jobs, nil
}

// cloneJob copies a job so callers cannot mutate stored state.
func cloneJob(job *domain.Job) *domain.Job {
	clone := *job
	if job.Payload != nil {
		clone.Payload = append(clone.Payload[:0:0], job.Payload...)
	}
	if job.Result != nil {
		clone.Result = append(clone.Result[:0:0], job.Result...)
	}
	return &clone
}
