package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/events"
)

func TestJobRequestEventHandler(t *testing.T) {
	t.Parallel()

	t.Run("builds and submits the task", func(t *testing.T) {
		t.Parallel()

		runner, jobStore, registry := newTestRunner(t, SchedulerConfig{MaxConcurrency: 1})

		executed := make(chan struct{})
		require.NoError(t, registry.Register(&stubFactory{
			kind: "echo",
			execute: func(ctx context.Context) (any, error) {
				close(executed)
				return nil, nil
			},
		}))

		handler := NewJobRequestEventHandler(registry, runner, testLogger())

		job := saveTestJob(t, jobStore, "echo")
		event := events.NewJobRequestEvent(job.ID, job.Kind, job.Payload)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		select {
		case <-executed:
		case <-time.After(5 * time.Second):
			t.Fatal("submitted task did not execute")
		}
		waitForStatus(t, jobStore, job, domain.JobStatusSucceeded)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		runner, jobStore, registry := newTestRunner(t, SchedulerConfig{MaxConcurrency: 1})
		handler := NewJobRequestEventHandler(registry, runner, testLogger())

		job := saveTestJob(t, jobStore, "nobody_home")
		event := events.NewJobRequestEvent(job.ID, job.Kind, json.RawMessage(`{}`))

		err := handler.HandleEvent(context.Background(), event)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}
