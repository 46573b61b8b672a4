package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmarkham/schedq/internal/events"
)

// JobRequestEventHandler implements the events.EventHandler interface.
// It turns JobRequestEvents into executable tasks via the registry and
// submits them to the runner, decoupling job creation (the service layer)
// from job execution.
type JobRequestEventHandler struct {
	registry *Registry
	runner   *Runner
	logger   *slog.Logger
}

// Ensure JobRequestEventHandler implements events.EventHandler
var _ events.EventHandler = (*JobRequestEventHandler)(nil)

// NewJobRequestEventHandler creates a new event handler that builds tasks
// with the given registry and submits them to the provided runner.
func NewJobRequestEventHandler(
	registry *Registry,
	runner *Runner,
	logger *slog.Logger,
) *JobRequestEventHandler {
	return &JobRequestEventHandler{
		registry: registry,
		runner:   runner,
		logger:   logger.With("component", "job_request_event_handler"),
	}
}

// HandleEvent processes a job request by creating and submitting its task.
func (h *JobRequestEventHandler) HandleEvent(
	ctx context.Context,
	event *events.JobRequestEvent,
) error {
	logger := h.logger.With(
		"event_id", event.ID,
		"job_id", event.JobID,
		"job_kind", event.Kind,
	)

	t, err := h.registry.NewTask(event.Kind, event.JobID, event.Payload)
	if err != nil {
		logger.Error("failed to create task", "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := h.runner.Submit(ctx, t); err != nil {
		logger.Error("failed to submit task", "error", err)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	logger.Debug("task created and submitted")
	return nil
}
