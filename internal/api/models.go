package api

import (
	"encoding/json"
	"time"
)

// Common request/response structures

// TokenRequest defines the payload for the token exchange endpoint.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required,min=1"`

	// ClientID is an optional caller-chosen identifier carried into the
	// issued token for log correlation.
	ClientID string `json:"client_id" validate:"omitempty,max=64"`
}

// TokenResponse defines the successful response for the token exchange
// endpoint.
type TokenResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// SubmitJobRequest defines the payload for the job submission endpoint.
type SubmitJobRequest struct {
	Kind    string          `json:"kind"    validate:"required,min=1,max=64"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// JobResponse represents the response data for a job.
type JobResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
