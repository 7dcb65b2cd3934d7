// Package usecase implements the two-factor enrollment state machine and
// login-time code verification.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	"github.com/allisson/passvault/internal/twofactor/domain"
)

// SetupOutput is the result of starting two-factor enrollment. The secret and
// URL are shown to the user so an authenticator app can be provisioned.
type SetupOutput struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// TwoFactorUseCase defines two-factor operations. Enrollment moves through
// disabled -> pending_verification -> enabled; each transition requires proof
// of a working authenticator.
type TwoFactorUseCase interface {
	// Setup generates a fresh secret and puts the account in the pending
	// state. Calling it again while pending rotates the secret.
	Setup(ctx context.Context, userID uuid.UUID) (*SetupOutput, error)

	// Activate confirms enrollment with a valid code and returns the plain
	// backup codes. They are shown exactly once.
	Activate(ctx context.Context, userID uuid.UUID, code string) ([]string, error)

	// Disable turns two-factor off. Requires a currently valid TOTP or
	// backup code so a hijacked session cannot silently weaken the account.
	Disable(ctx context.Context, userID uuid.UUID, code string) error

	// VerifyCode checks a login-time code: first as TOTP, then as a backup
	// code. A matched backup code is consumed.
	VerifyCode(ctx context.Context, user *identityDomain.User, code string) error
}

// BackupCodeRepository defines backup code persistence operations.
type BackupCodeRepository interface {
	ReplaceForUser(ctx context.Context, userID uuid.UUID, codes []*domain.BackupCode) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.BackupCode, error)
	MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
