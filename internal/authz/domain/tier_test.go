package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_Meets(t *testing.T) {
	// Total order: View < Edit < Admin.
	assert.True(t, TierView.Meets(TierView))
	assert.False(t, TierView.Meets(TierEdit))
	assert.False(t, TierView.Meets(TierAdmin))

	assert.True(t, TierEdit.Meets(TierView))
	assert.True(t, TierEdit.Meets(TierEdit))
	assert.False(t, TierEdit.Meets(TierAdmin))

	assert.True(t, TierAdmin.Meets(TierView))
	assert.True(t, TierAdmin.Meets(TierEdit))
	assert.True(t, TierAdmin.Meets(TierAdmin))
}

func TestParseTier(t *testing.T) {
	for _, tier := range []Tier{TierView, TierEdit, TierAdmin} {
		parsed, err := ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseTier("owner")
	assert.Error(t, err)
}
