package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tmarkham/schedq/internal/api/shared"
	"github.com/tmarkham/schedq/internal/config"
	"github.com/tmarkham/schedq/internal/service/auth"
)

// defaultClientID is used when a token request does not name a client.
const defaultClientID = "api-client"

// AuthHandler handles the API key to token exchange.
type AuthHandler struct {
	verifier      auth.APIKeyVerifier
	jwtService    auth.JWTService
	tokenLifetime time.Duration
	timeFunc      func() time.Time
	validator     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	verifier auth.APIKeyVerifier,
	jwtService auth.JWTService,
	cfg config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		verifier:      verifier,
		jwtService:    jwtService,
		tokenLifetime: time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		timeFunc:      time.Now,
		validator:     validator.New(),
	}
}

// Token handles POST /api/auth/token requests. A valid API key is exchanged
// for a short-lived JWT bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: api_key is required")
		return
	}

	if err := h.verifier.Verify(req.APIKey); err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	token, err := h.jwtService.GenerateToken(r.Context(), clientID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		ExpiresAt:   h.timeFunc().Add(h.tokenLifetime).UTC().Format(time.RFC3339),
	})
}
