package service

import (
	"crypto/rand"
	"strings"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// backup codes are 10 characters in two groups, drawn from an alphabet
// without ambiguous characters (no 0/O, 1/I/L).
const backupCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// BackupCodeService generates and verifies single-use recovery codes. Codes
// are hashed with Argon2id before storage.
type BackupCodeService interface {
	// GenerateCodes creates n random codes and returns them in plain form
	// alongside their hashes, index-aligned.
	GenerateCodes(n int) (plainCodes []string, hashes []string, err error)

	// Verify performs a constant-time comparison of a plain code against a hash.
	Verify(plainCode, hash string) bool
}

// backupCodeService implements BackupCodeService using Argon2id hashing.
type backupCodeService struct {
	hasher *pwdhash.PasswordHasher
}

// NewBackupCodeService creates a BackupCodeService. Uses the Interactive
// policy: codes are high-entropy random strings, not user-chosen passwords.
func NewBackupCodeService() BackupCodeService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}
	return &backupCodeService{hasher: hasher}
}

// GenerateCodes creates n codes like "A2B3C-D4E5F".
func (s *backupCodeService) GenerateCodes(n int) ([]string, []string, error) {
	plainCodes := make([]string, 0, n)
	hashes := make([]string, 0, n)

	for i := 0; i < n; i++ {
		code, err := randomCode()
		if err != nil {
			return nil, nil, err
		}
		// Hash the normalized form so Generate and Verify agree on the
		// canonical representation.
		hash, err := s.hasher.Hash([]byte(normalizeCode(code)))
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to hash backup code")
		}
		plainCodes = append(plainCodes, code)
		hashes = append(hashes, hash)
	}
	return plainCodes, hashes, nil
}

// Verify checks a plain code against its Argon2id hash.
func (s *backupCodeService) Verify(plainCode, hash string) bool {
	ok, err := s.hasher.Verify([]byte(normalizeCode(plainCode)), hash)
	if err != nil {
		return false
	}
	return ok
}

func randomCode() (string, error) {
	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate backup code")
	}

	var b strings.Builder
	for i, rb := range randomBytes {
		if i == 5 {
			b.WriteByte('-')
		}
		b.WriteByte(backupCodeAlphabet[int(rb)%len(backupCodeAlphabet)])
	}
	return b.String(), nil
}

// normalizeCode tolerates lower-case input and surrounding whitespace.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
