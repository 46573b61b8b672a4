package task

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probePayload(t *testing.T, url, method string) json.RawMessage {
	t.Helper()

	payload, err := json.Marshal(httpProbePayload{URL: url, Method: method})
	require.NoError(t, err)
	return payload
}

func TestNewHTTPProbeTask(t *testing.T) {
	t.Parallel()

	validPayload := json.RawMessage(`{"url":"https://example.com/health"}`)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		jobID := uuid.New()
		task, err := NewHTTPProbeTask(jobID, validPayload, http.DefaultClient, time.Second, testLogger())
		require.NoError(t, err)
		assert.Equal(t, jobID, task.ID())
		assert.Equal(t, KindHTTPProbe, task.Kind())
		assert.Equal(t, []byte(validPayload), task.Payload())
	})

	t.Run("nil client", func(t *testing.T) {
		t.Parallel()
		_, err := NewHTTPProbeTask(uuid.New(), validPayload, nil, time.Second, testLogger())
		assert.ErrorIs(t, err, ErrNilHTTPClient)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewHTTPProbeTask(uuid.New(), validPayload, http.DefaultClient, time.Second, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("empty job ID", func(t *testing.T) {
		t.Parallel()
		_, err := NewHTTPProbeTask(uuid.Nil, validPayload, http.DefaultClient, time.Second, testLogger())
		assert.ErrorIs(t, err, ErrEmptyJobID)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		_, err := NewHTTPProbeTask(uuid.New(), json.RawMessage(`{`), http.DefaultClient, time.Second, testLogger())
		assert.ErrorContains(t, err, "invalid http_probe payload")
	})

	t.Run("invalid URLs", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{
			"",
			"not-a-url",
			"/relative/path",
			"ftp://example.com",
		} {
			_, err := NewHTTPProbeTask(uuid.New(), probePayload(t, raw, ""), http.DefaultClient, time.Second, testLogger())
			assert.ErrorIs(t, err, ErrInvalidProbeURL, "url %q", raw)
		}
	})
}

func TestHTTPProbeTaskExecute(t *testing.T) {
	t.Parallel()

	t.Run("reports status and body size", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			fmt.Fprint(w, "pong")
		}))
		defer srv.Close()

		task, err := NewHTTPProbeTask(uuid.New(), probePayload(t, srv.URL, ""), srv.Client(), time.Second, testLogger())
		require.NoError(t, err)

		value, err := task.Execute(context.Background())
		require.NoError(t, err)

		result, ok := value.(*ProbeResult)
		require.True(t, ok)
		assert.Equal(t, srv.URL, result.URL)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, int64(4), result.BodyBytes)
		assert.GreaterOrEqual(t, result.DurationMillis, int64(0))
	})

	t.Run("non-2xx status is still a successful probe", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		task, err := NewHTTPProbeTask(uuid.New(), probePayload(t, srv.URL, ""), srv.Client(), time.Second, testLogger())
		require.NoError(t, err)

		value, err := task.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, value.(*ProbeResult).StatusCode)
	})

	t.Run("custom method", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
		}))
		defer srv.Close()

		task, err := NewHTTPProbeTask(uuid.New(), probePayload(t, srv.URL, http.MethodHead), srv.Client(), time.Second, testLogger())
		require.NoError(t, err)

		_, err = task.Execute(context.Background())
		require.NoError(t, err)
	})

	t.Run("transport failure fails the task", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // nothing listening anymore

		task, err := NewHTTPProbeTask(uuid.New(), probePayload(t, srv.URL, ""), http.DefaultClient, time.Second, testLogger())
		require.NoError(t, err)

		_, err = task.Execute(context.Background())
		assert.ErrorContains(t, err, "probe request failed")
	})

	t.Run("timeout cancels a slow probe", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		task, err := NewHTTPProbeTask(uuid.New(), probePayload(t, srv.URL, ""), srv.Client(), 20*time.Millisecond, testLogger())
		require.NoError(t, err)

		_, err = task.Execute(context.Background())
		assert.Error(t, err)
	})
}

func TestHTTPProbeTaskFactory(t *testing.T) {
	t.Parallel()

	t.Run("kind", func(t *testing.T) {
		t.Parallel()
		f := NewHTTPProbeTaskFactory(nil, time.Second, testLogger())
		assert.Equal(t, KindHTTPProbe, f.Kind())
	})

	t.Run("builds probe tasks", func(t *testing.T) {
		t.Parallel()
		f := NewHTTPProbeTaskFactory(nil, time.Second, testLogger())

		jobID := uuid.New()
		task, err := f.NewTask(jobID, probePayload(t, "https://example.com", ""))
		require.NoError(t, err)
		assert.Equal(t, jobID, task.ID())
		assert.Equal(t, KindHTTPProbe, task.Kind())
	})

	t.Run("rejects bad payload", func(t *testing.T) {
		t.Parallel()
		f := NewHTTPProbeTaskFactory(nil, time.Second, testLogger())

		_, err := f.NewTask(uuid.New(), probePayload(t, "not-a-url", ""))
		assert.ErrorIs(t, err, ErrInvalidProbeURL)
	})
}
