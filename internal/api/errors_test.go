package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmarkham/schedq/internal/service"
	"github.com/tmarkham/schedq/internal/service/auth"
	"github.com/tmarkham/schedq/internal/store"
	"github.com/tmarkham/schedq/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"invalid api key", auth.ErrInvalidAPIKey, http.StatusUnauthorized},
		{"job not found", service.ErrJobNotFound, http.StatusNotFound},
		{"store not found", store.ErrJobNotFound, http.StatusNotFound},
		{"unknown kind", service.ErrUnknownJobKind, http.StatusBadRequest},
		{"invalid payload", service.ErrInvalidJobPayload, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"queue full", task.ErrQueueFull, http.StatusTooManyRequests},
		{"scheduler closed", task.ErrSchedulerClosed, http.StatusServiceUnavailable},
		{"unknown error", errors.New("mystery"), http.StatusInternalServerError},
		{
			"wrapped sentinel",
			fmt.Errorf("submit: %w", service.ErrUnknownJobKind),
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "An unexpected error occurred"},
		{"invalid token", auth.ErrInvalidToken, "Invalid token"},
		{"invalid api key", auth.ErrInvalidAPIKey, "Invalid API key"},
		{"job not found", service.ErrJobNotFound, "Job not found"},
		{"unknown kind", service.ErrUnknownJobKind, "Unknown job kind"},
		{"invalid payload", service.ErrInvalidJobPayload, "Invalid job payload"},
		{"queue full", task.ErrQueueFull, "Job queue is full, try again later"},
		{"scheduler closed", task.ErrSchedulerClosed, "Service is shutting down"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}

	t.Run("internal detail never leaks", func(t *testing.T) {
		t.Parallel()
		err := errors.New("pq: connection to postgres://user:secret@db failed")
		got := GetSafeErrorMessage(err)
		assert.NotContains(t, got, "secret")
		assert.NotContains(t, got, "postgres")
	})
}
