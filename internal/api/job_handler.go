package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tmarkham/schedq/internal/api/shared"
	"github.com/tmarkham/schedq/internal/domain"
	"github.com/tmarkham/schedq/internal/service"
	"github.com/tmarkham/schedq/internal/task"
)

// SchedulerStatsProvider exposes a snapshot of scheduler state.
// task.Scheduler satisfies it.
type SchedulerStatsProvider interface {
	Stats() task.Stats
}

// JobHandler handles job-related HTTP requests.
type JobHandler struct {
	jobService service.JobService
	stats      SchedulerStatsProvider
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService, stats SchedulerStatsProvider) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		stats:      stats,
		validator:  validator.New(),
	}
}

// SubmitJob handles POST /api/jobs requests. Accepted jobs are executed
// asynchronously, so the response is 202 with the pending job record.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: kind and payload are required")
		return
	}

	job, err := h.jobService.SubmitJob(r.Context(), req.Kind, req.Payload)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobService.GetJob(r.Context(), jobID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// Kinds handles GET /api/jobs/kinds requests.
func (h *JobHandler) Kinds(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string][]string{
		"kinds": h.jobService.Kinds(),
	})
}

// SchedulerStats handles GET /api/scheduler/stats requests.
func (h *JobHandler) SchedulerStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Stats())
}

// jobToResponse converts a domain.Job to a JobResponse.
func jobToResponse(job *domain.Job) JobResponse {
	return JobResponse{
		ID:        job.ID.String(),
		Kind:      job.Kind,
		Status:    string(job.Status),
		Payload:   job.Payload,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
