// Package domain defines the vault sharing relation and its invitation
// extension. A share grants a non-owner a permission tier on one vault; the
// owner never holds a share row for their own vault.
package domain

import (
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/errors"
)

// VaultShare grants a user a permission tier on a vault. The (VaultID,
// UserID) pair is the key: a user holds at most one share per vault, and
// sharing again updates the tier in place.
type VaultShare struct {
	VaultID   uuid.UUID
	UserID    uuid.UUID
	Tier      authzDomain.Tier
	GrantedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShareInfo is the resolved view of a share returned to callers: the target's
// identity alongside the grant.
type ShareInfo struct {
	VaultID   uuid.UUID        `json:"vault_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Tier      authzDomain.Tier `json:"tier"`
	GrantedBy uuid.UUID        `json:"granted_by"`
}

// Invitation is a time-boxed, single-use, email-bound sharing offer. Only the
// hash of the invitation token is stored.
type Invitation struct {
	ID         uuid.UUID
	VaultID    uuid.UUID
	Email      string
	Tier       authzDomain.Tier
	TokenHash  string
	CreatedBy  uuid.UUID
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Sharing errors.
var (
	// ErrShareNotFound indicates no share exists for the (vault, user) pair.
	ErrShareNotFound = errors.Wrap(errors.ErrNotFound, "share not found")

	// ErrSelfShare indicates an attempt to share a vault with its own owner.
	ErrSelfShare = errors.Wrap(errors.ErrInvalidInput, "cannot share a vault with its owner")

	// ErrOwnerRevoke indicates an attempt to revoke or alter the owner's own standing.
	ErrOwnerRevoke = errors.Wrap(errors.ErrInvalidInput, "cannot revoke the vault owner")

	// ErrDuplicateShare is reserved for stores that cannot upsert atomically.
	ErrDuplicateShare = errors.Wrap(errors.ErrConflict, "share already exists")

	// ErrInvitationNotFound indicates the invitation token is unknown.
	ErrInvitationNotFound = errors.Wrap(errors.ErrNotFound, "invitation not found")

	// ErrInvitationExpired indicates the invitation is past its expiry.
	ErrInvitationExpired = errors.Wrap(errors.ErrInvalidInput, "invitation expired")

	// ErrInvitationConsumed indicates the invitation was already accepted.
	ErrInvitationConsumed = errors.Wrap(errors.ErrInvalidInput, "invitation already used")

	// ErrInvitationEmailMismatch indicates the accepting user's email does not
	// match the invited email.
	ErrInvitationEmailMismatch = errors.Wrap(errors.ErrForbidden, "invitation was issued to a different email")
)
