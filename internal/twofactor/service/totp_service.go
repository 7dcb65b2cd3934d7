// Package service provides the time-based one-time password primitives used
// by two-factor enrollment and login verification.
package service

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// TOTPService generates shared secrets and validates 6-digit codes against
// the 30-second time step defined by RFC 6238.
type TOTPService interface {
	// GenerateSecret creates a new base32 secret for the given account and
	// returns the secret plus the otpauth:// provisioning URL.
	GenerateSecret(accountName string) (secret string, otpauthURL string, err error)

	// GenerateCode derives the 6-digit code for the secret at the given time.
	GenerateCode(secret string, at time.Time) (string, error)

	// ValidateCode checks a code against the secret. A code from any time
	// step within the configured skew is accepted; the comparison is
	// constant-time.
	ValidateCode(secret, code string) bool
}

// totpService implements TOTPService on RFC 6238 with SHA-1 and 6 digits,
// which is what authenticator apps expect.
type totpService struct {
	issuer    string
	skewSteps uint
}

// NewTOTPService creates a TOTPService. skewSteps is the number of 30-second
// steps accepted on each side of the current one.
func NewTOTPService(issuer string, skewSteps uint) TOTPService {
	return &totpService{issuer: issuer, skewSteps: skewSteps}
}

// GenerateSecret creates a new random secret bound to this service's issuer.
func (s *totpService) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate totp secret")
	}
	return key.Secret(), key.URL(), nil
}

// GenerateCode derives the code for a specific moment. Used by tests and by
// clients that need a code outside an authenticator app.
func (s *totpService) GenerateCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate totp code")
	}
	return code, nil
}

// ValidateCode accepts the code if it matches any step within the skew.
func (s *totpService) ValidateCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      s.skewSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}
