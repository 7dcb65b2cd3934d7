// Package domain defines the vault and credential models. Vaults are
// soft-deleted so audit history referencing them stays resolvable;
// credentials hold their secret sealed with an AEAD envelope.
package domain

import (
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/errors"
)

// Vault is a named container for credentials with exactly one owner.
// Ownership is immutable after creation. IsDeleted hides the vault from all
// reads and blocks updates, but the row stays behind for audit resolution.
type Vault struct {
	ID          uuid.UUID
	Name        string
	Description string
	Icon        string
	OwnerID     uuid.UUID
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resource returns the authorization resource for this vault.
func (v *Vault) Resource() *authzDomain.Resource {
	return &authzDomain.Resource{
		VaultID:   v.ID,
		OwnerID:   v.OwnerID,
		IsDeleted: v.IsDeleted,
	}
}

// Credential is a secret record inside a vault. The secret itself is stored
// as ciphertext plus nonce; plaintext only exists in memory during a read.
type Credential struct {
	ID               uuid.UUID
	VaultID          uuid.UUID
	Name             string
	Username         string
	SecretCiphertext []byte
	SecretNonce      []byte
	URL              string
	Notes            string
	Tags             []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Vault errors.
var (
	// ErrVaultNotFound indicates the vault does not exist or is soft-deleted.
	ErrVaultNotFound = errors.Wrap(errors.ErrNotFound, "vault not found")

	// ErrCredentialNotFound indicates the credential does not exist.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")
)
