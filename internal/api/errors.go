package api

import (
	"errors"
	"net/http"

	"github.com/tmarkham/schedq/internal/service"
	"github.com/tmarkham/schedq/internal/service/auth"
	"github.com/tmarkham/schedq/internal/store"
	"github.com/tmarkham/schedq/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidAPIKey):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, service.ErrUnknownJobKind),
		errors.Is(err, service.ErrInvalidJobPayload),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Backpressure: the scheduler refused the work
	case errors.Is(err, task.ErrQueueFull):
		return http.StatusTooManyRequests

	// Shutdown in progress
	case errors.Is(err, task.ErrSchedulerClosed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidAPIKey):
		return "Invalid API key"

	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Job not found"

	case errors.Is(err, service.ErrUnknownJobKind):
		return "Unknown job kind"

	case errors.Is(err, service.ErrInvalidJobPayload):
		return "Invalid job payload"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid job data"

	case errors.Is(err, task.ErrQueueFull):
		return "Job queue is full, try again later"

	case errors.Is(err, task.ErrSchedulerClosed):
		return "Service is shutting down"

	default:
		return "An unexpected error occurred"
	}
}
