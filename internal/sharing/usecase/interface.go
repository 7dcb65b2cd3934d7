// Package usecase implements the sharing manager: granting, changing, and
// revoking vault access tiers, plus the invitation flow.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	"github.com/allisson/passvault/internal/sharing/domain"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// SharingUseCase defines vault sharing operations. Share, revoke, change and
// list are gated the same way: only the owner or an admin-tier sharer passes.
type SharingUseCase interface {
	// Share grants the user behind targetEmail a tier on the vault. Sharing
	// with a user who already holds a share updates the tier in place.
	Share(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, targetEmail string, tier authzDomain.Tier) (*domain.ShareInfo, error)

	// Revoke removes a user's share. Revoking a share that does not exist
	// reports ShareNotFound so callers can detect that nothing happened.
	Revoke(ctx context.Context, subject authzDomain.Subject, vaultID, targetUserID uuid.UUID) error

	// ChangeTier updates an existing share's tier in place.
	ChangeTier(ctx context.Context, subject authzDomain.Subject, vaultID, targetUserID uuid.UUID, newTier authzDomain.Tier) (*domain.ShareInfo, error)

	// ListShares returns the resolved shares of a vault.
	ListShares(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID) ([]*domain.ShareInfo, error)

	// HasAccess reports whether the user can act on the vault at the given
	// tier. The owner always has access.
	HasAccess(ctx context.Context, vaultID, userID uuid.UUID, minTier authzDomain.Tier) (bool, error)

	// Invite creates a time-boxed, single-use, email-bound invitation and
	// returns the plain token to deliver out of band.
	Invite(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, targetEmail string, tier authzDomain.Tier) (string, *domain.Invitation, error)

	// AcceptInvitation consumes an invitation token and grants the share it
	// encodes. The accepting user's email must match the invited email.
	AcceptInvitation(ctx context.Context, subject authzDomain.Subject, plainToken string) (*domain.ShareInfo, error)
}

// ShareRepository defines share persistence operations.
type ShareRepository interface {
	Upsert(ctx context.Context, share *domain.VaultShare) error
	Get(ctx context.Context, vaultID, userID uuid.UUID) (*domain.VaultShare, error)
	Delete(ctx context.Context, vaultID, userID uuid.UUID) error
	ListByVault(ctx context.Context, vaultID uuid.UUID) ([]*domain.ShareInfo, error)
	HasAccess(ctx context.Context, vaultID, userID uuid.UUID, minTier authzDomain.Tier) (bool, error)
}

// InvitationRepository defines invitation persistence operations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *domain.Invitation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error)
	Consume(ctx context.Context, tokenHash string, now time.Time) (*domain.Invitation, error)
}

// VaultReader loads vaults for share gating and owner checks.
type VaultReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*vaultDomain.Vault, error)
	GetAnyByID(ctx context.Context, id uuid.UUID) (*vaultDomain.Vault, error)
}

// UserReader resolves share targets.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
	GetByEmail(ctx context.Context, email string) (*identityDomain.User, error)
}

// AuditLogger records audit entries. Implementations must treat recording as
// best-effort: a failure here never aborts the primary operation.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action auditDomain.Action, vaultID, credentialID *uuid.UUID, details string)
}
