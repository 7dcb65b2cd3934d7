// Package usecase implements the authorization resolver that gates every
// vault, credential, tag, and audit operation.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
)

// Authorizer decides whether a subject may perform an action, optionally on a
// specific resource instance. The error return is reserved for infrastructure
// failures (store timeouts); a definitive negative outcome is a Deny decision,
// never an error.
type Authorizer interface {
	Authorize(
		ctx context.Context,
		subject authzDomain.Subject,
		action authzDomain.Action,
		resource *authzDomain.Resource,
	) (authzDomain.Decision, error)
}

// ShareReader is the sharing-manager query the resolver consults for
// non-owner access. Owners never reach this call: ownership is checked first
// and always wins.
type ShareReader interface {
	HasAccess(ctx context.Context, vaultID, userID uuid.UUID, minTier authzDomain.Tier) (bool, error)
}
