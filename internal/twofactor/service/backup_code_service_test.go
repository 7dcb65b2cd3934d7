package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCodeService(t *testing.T) {
	svc := NewBackupCodeService()

	t.Run("generates aligned codes and hashes", func(t *testing.T) {
		plainCodes, hashes, err := svc.GenerateCodes(5)
		require.NoError(t, err)
		require.Len(t, plainCodes, 5)
		require.Len(t, hashes, 5)

		seen := make(map[string]bool)
		for i, code := range plainCodes {
			assert.Len(t, code, 11)
			assert.NotEqual(t, code, hashes[i])
			assert.True(t, svc.Verify(code, hashes[i]))
			assert.False(t, seen[code])
			seen[code] = true
		}
	})

	t.Run("wrong code fails verification", func(t *testing.T) {
		plainCodes, hashes, err := svc.GenerateCodes(1)
		require.NoError(t, err)
		assert.False(t, svc.Verify("AAAAA-AAAAA", hashes[0]))
		assert.False(t, svc.Verify("", hashes[0]))
		assert.False(t, svc.Verify(plainCodes[0], "not-a-hash"))
	})

	t.Run("verification tolerates case and whitespace", func(t *testing.T) {
		plainCodes, hashes, err := svc.GenerateCodes(1)
		require.NoError(t, err)
		assert.True(t, svc.Verify("  "+plainCodes[0]+" ", hashes[0]))
		assert.True(t, svc.Verify(strings.ToLower(plainCodes[0]), hashes[0]))
	})

	t.Run("generated codes are already canonical", func(t *testing.T) {
		plainCodes, hashes, err := svc.GenerateCodes(3)
		require.NoError(t, err)
		for i, code := range plainCodes {
			assert.Equal(t, normalizeCode(code), code)
			assert.True(t, svc.Verify(code, hashes[i]))
		}
	})
}
