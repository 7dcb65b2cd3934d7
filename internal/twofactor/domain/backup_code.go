// Package domain defines two-factor enrollment models: single-use backup
// codes and the errors of the enable/verify/disable state machine.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/errors"
)

// BackupCode is a single-use recovery code for an account with TOTP enabled.
// Only the Argon2id hash of the code is stored; the plain code is shown to
// the user once at activation time.
type BackupCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CodeHash  string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Used reports whether the code has already been consumed.
func (c *BackupCode) Used() bool {
	return c.UsedAt != nil
}

// Two-factor errors.
var (
	// ErrTwoFactorAlreadyEnabled indicates setup was requested while TOTP is active.
	ErrTwoFactorAlreadyEnabled = errors.Wrap(errors.ErrConflict, "two-factor already enabled")

	// ErrTwoFactorNotPending indicates activation was requested without a prior setup.
	ErrTwoFactorNotPending = errors.Wrap(errors.ErrInvalidInput, "two-factor setup not pending")

	// ErrTwoFactorNotEnabled indicates disable was requested while TOTP is off.
	ErrTwoFactorNotEnabled = errors.Wrap(errors.ErrInvalidInput, "two-factor not enabled")
)
