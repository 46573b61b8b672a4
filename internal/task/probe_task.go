package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// KindHTTPProbe is the job kind executed by HTTPProbeTask.
const KindHTTPProbe = "http_probe"

// Common errors for HTTP probe tasks
var (
	ErrNilHTTPClient   = errors.New("http client cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyJobID      = errors.New("job ID cannot be empty")
	ErrInvalidProbeURL = errors.New("probe URL must be an absolute http or https URL")
)

// httpProbePayload represents the serialized data stored in the job record.
type httpProbePayload struct {
	URL string `json:"url"`

	// Method defaults to GET when empty.
	Method string `json:"method,omitempty"`
}

// ProbeResult is the outcome of one HTTP probe, stored as the job result.
type ProbeResult struct {
	URL            string `json:"url"`
	StatusCode     int    `json:"status_code"`
	DurationMillis int64  `json:"duration_ms"`
	BodyBytes      int64  `json:"body_bytes"`
}

// HTTPProbeTask implements the Task interface. It issues a single HTTP
// request against the payload URL and reports the status code, latency,
// and response size. A non-2xx status is still a successful probe; only
// transport-level failures fail the task.
type HTTPProbeTask struct {
	jobID   uuid.UUID
	payload httpProbePayload
	raw     json.RawMessage
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure HTTPProbeTask implements the Task interface
var _ Task = (*HTTPProbeTask)(nil)

// NewHTTPProbeTask creates a new HTTP probe task for the given job.
func NewHTTPProbeTask(
	jobID uuid.UUID,
	payload json.RawMessage,
	client *http.Client,
	timeout time.Duration,
	logger *slog.Logger,
) (*HTTPProbeTask, error) {
	if client == nil {
		return nil, ErrNilHTTPClient
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if jobID == uuid.Nil {
		return nil, ErrEmptyJobID
	}

	var decoded httpProbePayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("invalid http_probe payload: %w", err)
	}
	if err := validateProbeURL(decoded.URL); err != nil {
		return nil, err
	}
	if decoded.Method == "" {
		decoded.Method = http.MethodGet
	}

	return &HTTPProbeTask{
		jobID:   jobID,
		payload: decoded,
		raw:     payload,
		client:  client,
		timeout: timeout,
		logger:  logger.With("job_kind", KindHTTPProbe, "job_id", jobID),
	}, nil
}

// ID returns the job ID this task executes.
func (t *HTTPProbeTask) ID() uuid.UUID {
	return t.jobID
}

// Kind returns the job kind identifier.
func (t *HTTPProbeTask) Kind() string {
	return KindHTTPProbe
}

// Payload returns the job data as a byte slice.
func (t *HTTPProbeTask) Payload() []byte {
	return t.raw
}

// Execute performs the probe and returns a ProbeResult.
func (t *HTTPProbeTask) Execute(ctx context.Context) (any, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, t.payload.Method, t.payload.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}

	started := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("probe request failed", "url", t.payload.URL, "error", err)
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.logger.Warn("failed to close probe response body", "error", closeErr)
		}
	}()

	// Drain the body so the connection can be reused; the content itself
	// is irrelevant, only its size is reported.
	bodyBytes, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe response: %w", err)
	}

	result := &ProbeResult{
		URL:            t.payload.URL,
		StatusCode:     resp.StatusCode,
		DurationMillis: time.Since(started).Milliseconds(),
		BodyBytes:      bodyBytes,
	}

	t.logger.Debug("probe completed",
		"url", result.URL,
		"status_code", result.StatusCode,
		"duration_ms", result.DurationMillis)

	return result, nil
}

// validateProbeURL rejects anything that is not an absolute http(s) URL.
func validateProbeURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProbeURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidProbeURL, raw)
	}
	return nil
}

// HTTPProbeTaskFactory creates HTTPProbeTask instances.
type HTTPProbeTaskFactory struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure HTTPProbeTaskFactory implements TaskFactory
var _ TaskFactory = (*HTTPProbeTaskFactory)(nil)

// NewHTTPProbeTaskFactory creates a new factory for HTTP probe tasks.
// A nil client falls back to a dedicated client with sane defaults.
func NewHTTPProbeTaskFactory(
	client *http.Client,
	timeout time.Duration,
	logger *slog.Logger,
) *HTTPProbeTaskFactory {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProbeTaskFactory{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "http_probe_task_factory"),
	}
}

// Kind returns the job kind this factory builds tasks for.
func (f *HTTPProbeTaskFactory) Kind() string {
	return KindHTTPProbe
}

// NewTask builds an HTTP probe task for the given job.
func (f *HTTPProbeTaskFactory) NewTask(jobID uuid.UUID, payload json.RawMessage) (Task, error) {
	return NewHTTPProbeTask(jobID, payload, f.client, f.timeout, f.logger)
}
