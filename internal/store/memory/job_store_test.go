package memory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/store"
	"github.com/tmarkham/schedq/internal/store/memory"
)

func newJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("http_probe", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	return job
}

func TestSaveJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("saves and retrieves", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)

		require.NoError(t, s.SaveJob(ctx, job))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, domain.JobStatusPending, got.Status)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)

		require.NoError(t, s.SaveJob(ctx, job))
		err := s.SaveJob(ctx, job)

		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("rejects invalid job", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)
		job.Kind = ""

		err := s.SaveJob(ctx, job)

		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("stored copy is isolated from caller", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)

		require.NoError(t, s.SaveJob(ctx, job))
		job.Status = domain.JobStatusFailed

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)
	})
}

func TestUpdateJobStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates status and outcome", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)
		require.NoError(t, s.SaveJob(ctx, job))

		outcome := &store.JobOutcome{Result: json.RawMessage(`{"status_code":200}`)}
		require.NoError(t, s.UpdateJobStatus(ctx, job.ID, domain.JobStatusSucceeded, outcome))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusSucceeded, got.Status)
		assert.JSONEq(t, `{"status_code":200}`, string(got.Result))
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("nil outcome leaves result untouched", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)
		require.NoError(t, s.SaveJob(ctx, job))

		require.NoError(t, s.UpdateJobStatus(ctx, job.ID, domain.JobStatusRunning, nil))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusRunning, got.Status)
		assert.Empty(t, got.Result)
		assert.Empty(t, got.Error)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()
		s := memory.New()

		err := s.UpdateJobStatus(ctx, uuid.New(), domain.JobStatusRunning, nil)

		assert.ErrorIs(t, err, store.ErrJobNotFound)
	})

	t.Run("terminal status cannot be overwritten", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		job := newJob(t)
		require.NoError(t, s.SaveJob(ctx, job))
		require.NoError(t, s.UpdateJobStatus(ctx, job.ID, domain.JobStatusFailed,
			&store.JobOutcome{ErrorMessage: "boom"}))

		err := s.UpdateJobStatus(ctx, job.ID, domain.JobStatusSucceeded, nil)

		assert.ErrorIs(t, err, store.ErrUpdateFailed)
		got, getErr := s.GetJob(ctx, job.ID)
		require.NoError(t, getErr)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		assert.Equal(t, "boom", got.Error)
	})
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	s := memory.New()
	job, err := s.GetJob(context.Background(), uuid.New())

	assert.Nil(t, job)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestListJobsByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("filters by status and orders oldest first", func(t *testing.T) {
		t.Parallel()
		s := memory.New()

		first := newJob(t)
		first.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
		second := newJob(t)
		second.CreatedAt = time.Now().UTC().Add(-1 * time.Hour)
		running := newJob(t)
		running.Status = domain.JobStatusRunning

		// Insert out of order to exercise the sort.
		require.NoError(t, s.SaveJob(ctx, second))
		require.NoError(t, s.SaveJob(ctx, first))
		require.NoError(t, s.SaveJob(ctx, running))

		jobs, err := s.ListJobsByStatus(ctx, domain.JobStatusPending, 0)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, first.ID, jobs[0].ID)
		assert.Equal(t, second.ID, jobs[1].ID)
	})

	t.Run("olderThan filters recent jobs", func(t *testing.T) {
		t.Parallel()
		s := memory.New()

		stale := newJob(t)
		stale.Status = domain.JobStatusRunning
		stale.UpdatedAt = time.Now().UTC().Add(-time.Hour)
		fresh := newJob(t)
		fresh.Status = domain.JobStatusRunning
		fresh.UpdatedAt = time.Now().UTC()

		require.NoError(t, s.SaveJob(ctx, stale))
		require.NoError(t, s.SaveJob(ctx, fresh))

		jobs, err := s.ListJobsByStatus(ctx, domain.JobStatusRunning, 30*time.Minute)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, stale.ID, jobs[0].ID)
	})
}
