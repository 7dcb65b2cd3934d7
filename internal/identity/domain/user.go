// Package domain defines the user identity domain model and its security
// state: password hash, lockout counters, and the two-factor state machine.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/errors"
)

// TwoFactorStatus is the per-user state of the TOTP second factor.
// Transitions: Disabled -> PendingVerification (secret generated, not yet
// active) -> Enabled. Disabling requires a currently valid code.
type TwoFactorStatus string

const (
	TwoFactorDisabled            TwoFactorStatus = "disabled"
	TwoFactorPendingVerification TwoFactorStatus = "pending_verification"
	TwoFactorEnabled             TwoFactorStatus = "enabled"
)

// User represents an account identity.
type User struct {
	ID              uuid.UUID
	Name            string
	Email           string // normalized lower-case, unique
	PasswordHash    string
	EmailConfirmed  bool
	Roles           []authzDomain.Role
	TOTPSecret      string // base32 secret, set while pending or enabled
	TwoFactorStatus TwoFactorStatus
	FailedAttempts  int
	LockedUntil     *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLocked reports whether the account is inside a lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// TwoFactorActive reports whether a valid TOTP code is required at login.
func (u *User) TwoFactorActive() bool {
	return u.TwoFactorStatus == TwoFactorEnabled
}

// Subject returns the authorization subject for this user.
func (u *User) Subject() authzDomain.Subject {
	return authzDomain.Subject{UserID: u.ID, Roles: u.Roles}
}

// NormalizeEmail case-folds and trims an email address so uniqueness checks
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrEmailTaken indicates a user with the same normalized email already exists.
	ErrEmailTaken = errors.Wrap(errors.ErrConflict, "email already taken")

	// ErrInvalidCredentials indicates the email/password pair does not match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrAccountLocked indicates the account is inside a lockout window.
	ErrAccountLocked = errors.Wrap(errors.ErrLocked, "account locked")

	// ErrEmailUnconfirmed indicates the account email has not been confirmed yet.
	ErrEmailUnconfirmed = errors.Wrap(errors.ErrUnauthorized, "email not confirmed")

	// ErrTwoFactorRequired indicates login needs a valid TOTP code.
	ErrTwoFactorRequired = errors.Wrap(errors.ErrUnauthorized, "two-factor code required")

	// ErrInvalidTwoFactorCode indicates the presented TOTP or backup code is not valid.
	ErrInvalidTwoFactorCode = errors.Wrap(errors.ErrUnauthorized, "invalid two-factor code")
)
