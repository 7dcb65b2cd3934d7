// Package service provides password hashing for user accounts.
package service

import (
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// PasswordService defines salted adaptive password hashing. Verification is
// constant-time and rejects empty input.
type PasswordService interface {
	// Hash hashes a plain text password.
	Hash(plainPassword string) (string, error)

	// Verify compares a plain text password against a stored hash.
	Verify(plainPassword string, passwordHash string) bool

	// NeedsRehash reports whether the stored hash uses an outdated cost
	// factor and should be transparently rehashed after a successful login.
	NeedsRehash(passwordHash string) bool
}

// bcryptPasswordService implements PasswordService using bcrypt.
type bcryptPasswordService struct {
	cost int
}

// Hash hashes the password with the configured bcrypt cost.
func (s *bcryptPasswordService) Hash(plainPassword string) (string, error) {
	if plainPassword == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "password must not be empty")
	}
	// bcrypt silently truncates beyond 72 bytes; reject instead.
	if len(plainPassword) > 72 {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "password exceeds 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// Verify reports whether the password matches the hash. Empty or malformed
// input never verifies. bcrypt's comparison is constant-time.
func (s *bcryptPasswordService) Verify(plainPassword string, passwordHash string) bool {
	if plainPassword == "" || passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(plainPassword)) == nil
}

// NeedsRehash reports whether the hash was produced with a lower cost than
// currently configured. Unparseable hashes report true so they get replaced.
func (s *bcryptPasswordService) NeedsRehash(passwordHash string) bool {
	cost, err := bcrypt.Cost([]byte(passwordHash))
	if err != nil {
		return true
	}
	return cost < s.cost
}

// NewPasswordService creates a bcrypt-backed PasswordService. Costs outside
// bcrypt's supported range fall back to the library default.
func NewPasswordService(cost int) PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptPasswordService{cost: cost}
}
