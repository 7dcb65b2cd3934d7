// Package usecase implements session lifecycle orchestration: issuing token
// pairs, single-use refresh rotation, stateless access token validation, and
// logout.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	"github.com/allisson/passvault/internal/token/domain"
	"github.com/allisson/passvault/internal/token/service"
)

// TokenUseCase defines session token operations.
type TokenUseCase interface {
	// IssuePair creates a new access/refresh pair for an authenticated user.
	IssuePair(ctx context.Context, user *identityDomain.User) (*domain.TokenPair, error)

	// Refresh consumes a refresh token and issues a replacement pair. A
	// refresh token works exactly once: a second use of the same token fails
	// even under concurrent calls.
	Refresh(ctx context.Context, plainToken string) (*domain.TokenPair, error)

	// Validate checks an access token and returns its claims. Never hits the
	// store.
	Validate(ctx context.Context, accessToken string) (*service.AccessTokenClaims, error)

	// Logout revokes the caller's refresh token. Outstanding access tokens
	// stay valid until they expire.
	Logout(ctx context.Context, userID uuid.UUID, plainToken string) error

	// CleanExpired removes expired and revoked refresh tokens from the store.
	CleanExpired(ctx context.Context) (int64, error)
}

// RefreshTokenRepository defines refresh token persistence operations.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Consume(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserReader loads current user data so refreshed access tokens carry
// up-to-date name and roles instead of the values from login time.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
}
