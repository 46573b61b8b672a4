package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tmarkham/schedq/internal/api"
	"github.com/tmarkham/schedq/internal/config"
	"github.com/tmarkham/schedq/internal/task"
)

const testAPIKey = "sq_test_0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "error",
			ShutdownTimeout: 5,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-long-enough-for-testing",
			APIKeyHash:           string(hash),
			TokenLifetimeMinutes: 60,
		},
		Scheduler: config.SchedulerConfig{
			MaxConcurrency:      2,
			QueueSize:           0,
			ProbeTimeoutSeconds: 5,
		},
	}
}

// newTestServer wires a complete application on the in-memory store and
// serves its router.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplication(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return srv
}

func fetchToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	body := `{"api_key":"` + testAPIKey + `"}`
	resp, err := http.Post(srv.URL+"/api/auth/token", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp api.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))
	return tokenResp.AccessToken
}

func doAuthed(t *testing.T, srv *httptest.Server, token, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/jobs/kinds")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJobLifecycleEndToEnd(t *testing.T) {
	t.Parallel()

	probed := make(chan struct{}, 1)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	srv := newTestServer(t)
	token := fetchToken(t, srv)

	// Submit an http_probe job against the target server.
	submitBody := `{"kind":"http_probe","payload":{"url":"` + target.URL + `"}}`
	resp := doAuthed(t, srv, token, http.MethodPost, "/api/jobs", submitBody)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted api.JobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	assert.Equal(t, "pending", submitted.Status)

	select {
	case <-probed:
	case <-time.After(5 * time.Second):
		t.Fatal("probe target was never called")
	}

	// Poll until the job reaches a terminal state.
	deadline := time.Now().Add(5 * time.Second)
	var final api.JobResponse
	for time.Now().Before(deadline) {
		getResp := doAuthed(t, srv, token, http.MethodGet, "/api/jobs/"+submitted.ID, "")
		require.Equal(t, http.StatusOK, getResp.StatusCode)
		require.NoError(t, json.NewDecoder(getResp.Body).Decode(&final))
		_ = getResp.Body.Close()
		if final.Status == "succeeded" || final.Status == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, "succeeded", final.Status)
	assert.Contains(t, string(final.Result), `"status_code":200`)
}

func TestSubmitUnknownKind(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := fetchToken(t, srv)

	resp := doAuthed(t, srv, token, http.MethodPost, "/api/jobs",
		`{"kind":"teleport","payload":{}}`)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSchedulerStatsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := fetchToken(t, srv)

	resp := doAuthed(t, srv, token, http.MethodGet, "/api/scheduler/stats", "")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats task.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.MaxConcurrency)
}

func TestJobKindsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := fetchToken(t, srv)

	resp := doAuthed(t, srv, token, http.MethodGet, "/api/jobs/kinds", "")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var kinds map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&kinds))
	assert.Equal(t, []string{task.KindHTTPProbe}, kinds["kinds"])
}
