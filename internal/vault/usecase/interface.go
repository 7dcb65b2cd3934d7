// Package usecase implements vault and credential business logic. Every
// operation is gated by the authorization resolver and mutations leave an
// audit trail.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/httputil"
	"github.com/allisson/passvault/internal/vault/domain"
)

// VaultInput contains the mutable vault fields.
type VaultInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CredentialInput contains the mutable credential fields. Secret is the
// plaintext to seal; on update an empty Secret keeps the stored one.
type CredentialInput struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Secret   string   `json:"secret"`
	URL      string   `json:"url"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

// CredentialOutput is a credential with its secret revealed. Only Get returns
// it; list responses never carry plaintext.
type CredentialOutput struct {
	Credential *domain.Credential
	Secret     string
}

// VaultUseCase defines vault operations.
type VaultUseCase interface {
	// Create makes a new vault owned by the subject.
	Create(ctx context.Context, subject authzDomain.Subject, input *VaultInput) (*domain.Vault, error)

	// Get retrieves a vault the subject can at least view.
	Get(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID) (*domain.Vault, error)

	// List returns the vaults the subject owns or has a share on.
	List(ctx context.Context, subject authzDomain.Subject, page httputil.Page) (*httputil.PaginatedResult[*domain.Vault], error)

	// Update modifies a vault. Requires the edit tier.
	Update(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, input *VaultInput) (*domain.Vault, error)

	// Delete soft-deletes a vault. Requires the admin tier.
	Delete(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID) error
}

// CredentialUseCase defines credential operations inside a vault.
type CredentialUseCase interface {
	// Create seals the secret and stores a new credential in the vault.
	Create(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, input *CredentialInput) (*domain.Credential, error)

	// Get retrieves a credential with its secret revealed. The reveal is
	// itself audited.
	Get(ctx context.Context, subject authzDomain.Subject, credentialID uuid.UUID) (*CredentialOutput, error)

	// List returns the credentials of a vault without secrets.
	List(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID, page httputil.Page) (*httputil.PaginatedResult[*domain.Credential], error)

	// Update modifies a credential, resealing the secret when a new one is given.
	Update(ctx context.Context, subject authzDomain.Subject, credentialID uuid.UUID, input *CredentialInput) (*domain.Credential, error)

	// UpdateTags replaces a credential's tags.
	UpdateTags(ctx context.Context, subject authzDomain.Subject, credentialID uuid.UUID, tags []string) (*domain.Credential, error)

	// Delete removes a credential permanently.
	Delete(ctx context.Context, subject authzDomain.Subject, credentialID uuid.UUID) error
}

// VaultRepository defines vault persistence operations.
type VaultRepository interface {
	Create(ctx context.Context, vault *domain.Vault) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error)
	GetAnyByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error)
	Update(ctx context.Context, vault *domain.Vault) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Vault, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
	HardDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}

// CredentialRepository defines credential persistence operations.
type CredentialRepository interface {
	Create(ctx context.Context, credential *domain.Credential) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Credential, error)
	Update(ctx context.Context, credential *domain.Credential) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByVault(ctx context.Context, vaultID uuid.UUID, offset, limit int) ([]*domain.Credential, error)
	CountByVault(ctx context.Context, vaultID uuid.UUID) (int, error)
}

// AuditLogger records audit entries. Implementations must treat recording as
// best-effort: a failure here never aborts the primary operation.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action auditDomain.Action, vaultID, credentialID *uuid.UUID, details string)
}
