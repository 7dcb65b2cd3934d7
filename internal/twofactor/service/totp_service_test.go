package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPService(t *testing.T) {
	svc := NewTOTPService("PassVault", 1)

	newSecret := func(t *testing.T) string {
		t.Helper()
		secret, otpauthURL, err := svc.GenerateSecret("alice@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, secret)
		require.Contains(t, otpauthURL, "otpauth://totp/")
		require.Contains(t, otpauthURL, "PassVault")
		return secret
	}

	t.Run("current code is accepted", func(t *testing.T) {
		secret := newSecret(t)
		code, err := svc.GenerateCode(secret, time.Now().UTC())
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.True(t, svc.ValidateCode(secret, code))
	})

	t.Run("code one step away is accepted", func(t *testing.T) {
		secret := newSecret(t)

		past, err := svc.GenerateCode(secret, time.Now().UTC().Add(-30*time.Second))
		require.NoError(t, err)
		assert.True(t, svc.ValidateCode(secret, past))

		future, err := svc.GenerateCode(secret, time.Now().UTC().Add(30*time.Second))
		require.NoError(t, err)
		assert.True(t, svc.ValidateCode(secret, future))
	})

	t.Run("code three steps away is rejected", func(t *testing.T) {
		secret := newSecret(t)

		stale, err := svc.GenerateCode(secret, time.Now().UTC().Add(-90*time.Second))
		require.NoError(t, err)
		assert.False(t, svc.ValidateCode(secret, stale))

		ahead, err := svc.GenerateCode(secret, time.Now().UTC().Add(90*time.Second))
		require.NoError(t, err)
		assert.False(t, svc.ValidateCode(secret, ahead))
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		secret := newSecret(t)
		assert.False(t, svc.ValidateCode(secret, "000000"))
		assert.False(t, svc.ValidateCode(secret, "not-a-code"))
		assert.False(t, svc.ValidateCode(secret, ""))
	})

	t.Run("secrets are unique per enrollment", func(t *testing.T) {
		assert.NotEqual(t, newSecret(t), newSecret(t))
	})
}
