package domain

import (
	"github.com/google/uuid"
)

// Subject is the authenticated identity on whose behalf an action is
// attempted. Roles is a slice: the model does not assume exactly one role.
type Subject struct {
	UserID uuid.UUID
	Roles  []Role
}

// Resource describes the vault instance an action targets. For credentials
// the caller resolves the parent vault first: ownership is transitive through
// the vault. Callers map "resource absent" to their own not-found branch
// before asking for authorization.
type Resource struct {
	VaultID   uuid.UUID
	OwnerID   uuid.UUID
	IsDeleted bool
}

// Decision is the resolver's verdict. Deny reasons are for callers and
// audit trails; they never reveal whether a resource exists.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
