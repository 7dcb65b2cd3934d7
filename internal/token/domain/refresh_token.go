// Package domain defines session token domain models: the server-tracked
// refresh token and the access/refresh pair handed to clients.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/errors"
)

// RefreshToken is the server-side record of an opaque refresh token. Only the
// SHA-256 hash of the token is stored. A token is single-use: consuming it
// sets RevokedAt and issues a replacement pair.
type RefreshToken struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// TokenPair is the result of login or refresh: a signed short-lived access
// token and an opaque refresh token. The plain refresh token is only returned
// once and never stored.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Token errors. Expired and invalid tokens surface as Unauthorized, never as
// a silent "no identity".
var (
	// ErrRefreshTokenNotFound indicates no refresh token matches the hash.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrRefreshTokenInvalid indicates the refresh token is unknown.
	ErrRefreshTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "invalid refresh token")

	// ErrRefreshTokenRevoked indicates the refresh token was already consumed or revoked.
	ErrRefreshTokenRevoked = errors.Wrap(errors.ErrUnauthorized, "refresh token revoked")

	// ErrRefreshTokenExpired indicates the refresh token is past its expiry.
	ErrRefreshTokenExpired = errors.Wrap(errors.ErrUnauthorized, "refresh token expired")

	// ErrAccessTokenInvalid indicates the access token failed signature or claim checks.
	ErrAccessTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "invalid access token")

	// ErrAccessTokenExpired indicates the access token is past its expiry.
	ErrAccessTokenExpired = errors.Wrap(errors.ErrUnauthorized, "access token expired")
)
