// Package service provides invitation token generation.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// InvitationTokenService generates opaque invitation tokens. The plain token
// travels to the invitee out of band; only its SHA-256 hash is stored.
type InvitationTokenService interface {
	// Generate creates a new cryptographically secure random token and
	// returns both the plain token and its hash.
	Generate() (plainToken string, tokenHash string, err error)

	// Hash hashes a plain token for lookup.
	Hash(plainToken string) string
}

// invitationTokenService implements InvitationTokenService using SHA-256 hashing.
type invitationTokenService struct{}

// NewInvitationTokenService creates an InvitationTokenService.
func NewInvitationTokenService() InvitationTokenService {
	return &invitationTokenService{}
}

// Generate creates a new 32-byte random token, base64 URL-encoded.
func (s *invitationTokenService) Generate() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate invitation token")
	}

	plainToken := base64.URLEncoding.EncodeToString(randomBytes)
	return plainToken, s.Hash(plainToken), nil
}

// Hash returns the hex-encoded SHA-256 hash of the plain token.
func (s *invitationTokenService) Hash(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
