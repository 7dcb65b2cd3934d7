package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// RefreshTokenService generates opaque refresh tokens. The plain token goes
// to the client; only its SHA-256 hash is stored server-side.
type RefreshTokenService interface {
	// Generate creates a new cryptographically secure random token and
	// returns both the plain token and its hash.
	Generate() (plainToken string, tokenHash string, err error)

	// Hash hashes a plain token for lookup.
	Hash(plainToken string) string
}

// refreshTokenService implements RefreshTokenService using SHA-256 hashing.
type refreshTokenService struct{}

// Generate creates a new 32-byte random token, base64 URL-encoded.
func (s *refreshTokenService) Generate() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.URLEncoding.EncodeToString(randomBytes)
	return plainToken, s.Hash(plainToken), nil
}

// Hash returns the hex-encoded SHA-256 hash of the plain token.
func (s *refreshTokenService) Hash(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewRefreshTokenService creates a RefreshTokenService using SHA-256 hashing.
func NewRefreshTokenService() RefreshTokenService {
	return &refreshTokenService{}
}
