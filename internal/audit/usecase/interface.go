// Package usecase implements the audit logger: best-effort recording of
// authorization-relevant events and access-controlled queries over the trail.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/httputil"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// AuditUseCase records and queries the audit trail. Log never returns an
// error: a failure to persist an entry must not fail the operation it
// describes, so failures are logged and swallowed.
type AuditUseCase interface {
	// Log appends an entry for an action the subject performed. Client
	// metadata is taken from the request info carried in the context.
	Log(ctx context.Context, userID uuid.UUID, action domain.Action, vaultID, credentialID *uuid.UUID, details string)

	// QueryForUser returns a user's entries. Reading another user's trail
	// requires the audit read permission.
	QueryForUser(ctx context.Context, subject authzDomain.Subject, targetUserID uuid.UUID, filter domain.Filter, page httputil.Page) (*httputil.PaginatedResult[*domain.AuditLog], error)

	// QueryForVault returns a vault's entries. Requires owner or share access
	// to the vault, independent of who authored the entries. Resolves
	// soft-deleted vaults so history stays readable.
	QueryForVault(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, filter domain.Filter, page httputil.Page) (*httputil.PaginatedResult[*domain.AuditLog], error)

	// QueryAll returns entries across all users. Requires the audit read
	// permission.
	QueryAll(ctx context.Context, subject authzDomain.Subject, filter domain.Filter, page httputil.Page) (*httputil.PaginatedResult[*domain.AuditLog], error)

	// GetByID returns one entry. Accessible to its author, an audit read
	// permission holder, or the owner of the vault it references.
	GetByID(ctx context.Context, subject authzDomain.Subject, id uuid.UUID) (*domain.AuditLog, error)
}

// AuditLogRepository defines audit log persistence operations. Append-only:
// no update or delete exists.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *domain.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error)
	CountByUser(ctx context.Context, userID uuid.UUID, filter domain.Filter) (int64, error)
	ListByVault(ctx context.Context, vaultID uuid.UUID, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error)
	CountByVault(ctx context.Context, vaultID uuid.UUID, filter domain.Filter) (int64, error)
	ListAll(ctx context.Context, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error)
	CountAll(ctx context.Context, filter domain.Filter) (int64, error)
}

// VaultReader resolves vaults for per-vault queries and entry access checks.
// GetAnyByID ignores the soft-delete filter.
type VaultReader interface {
	GetAnyByID(ctx context.Context, id uuid.UUID) (*vaultDomain.Vault, error)
}
