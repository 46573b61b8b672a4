package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyVerifier defines the interface for checking a presented API key
// against stored credentials.
type APIKeyVerifier interface {
	// Verify compares the plaintext API key against the stored hash.
	// Returns nil on success, or ErrInvalidAPIKey on mismatch.
	Verify(apiKey string) error
}

// BcryptAPIKeyVerifier implements APIKeyVerifier using bcrypt against a
// single configured key hash.
type BcryptAPIKeyVerifier struct {
	hash []byte
}

// NewBcryptAPIKeyVerifier creates a verifier for the given bcrypt hash.
func NewBcryptAPIKeyVerifier(hash string) *BcryptAPIKeyVerifier {
	return &BcryptAPIKeyVerifier{hash: []byte(hash)}
}

// Verify implements the APIKeyVerifier interface using bcrypt.
func (v *BcryptAPIKeyVerifier) Verify(apiKey string) error {
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(apiKey))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAPIKey
		}
		return err
	}
	return nil
}
