// Package service provides the application-level operations for submitting
// and inspecting jobs. It sits between the HTTP layer and the store: handlers
// call services, services persist through the store and hand execution off to
// the task layer via events.
package service

import "errors"

// Sentinel errors returned by service implementations. Callers check these
// with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrJobNotFound indicates that the requested job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownJobKind indicates that no task factory is registered for
	// the submitted job kind.
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrInvalidJobPayload indicates that the payload could not be turned
	// into an executable task for its kind.
	ErrInvalidJobPayload = errors.New("invalid job payload")
)
