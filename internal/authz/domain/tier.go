package domain

import (
	"fmt"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// Tier is the ordered sharing level granted to a non-owner on a vault.
// The total order View < Edit < Admin makes "has at least X" a single
// comparison.
type Tier int

const (
	// TierView grants read access to a vault and its credentials.
	TierView Tier = iota + 1

	// TierEdit additionally grants credential and tag mutation.
	TierEdit

	// TierAdmin additionally grants re-sharing and revoking.
	TierAdmin
)

// Meets reports whether the tier meets or exceeds the minimum.
func (t Tier) Meets(min Tier) bool {
	return t >= min
}

// String returns the wire/storage name of the tier.
func (t Tier) String() string {
	switch t {
	case TierView:
		return "view"
	case TierEdit:
		return "edit"
	case TierAdmin:
		return "admin"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier resolves a tier name to its ordered value.
func ParseTier(name string) (Tier, error) {
	switch name {
	case "view":
		return TierView, nil
	case "edit":
		return TierEdit, nil
	case "admin":
		return TierAdmin, nil
	default:
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown share tier %q", name))
	}
}
