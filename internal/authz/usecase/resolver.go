package usecase

import (
	"context"
	"fmt"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// authorizer implements Authorizer by combining the static role-permission
// check with per-resource ownership/share resolution.
type authorizer struct {
	shares ShareReader
}

// Authorize decides ALLOW/DENY for (subject, action, resource).
//
// The algorithm:
//  1. Resolve the subject's effective permission set (union over roles).
//  2. Static check: the set must contain the action's permission. Failure
//     denies immediately, so pure role-based actions short-circuit without
//     touching the store.
//  3. For resource-scoped actions: soft-deleted resources deny (unless the
//     action is marked as a historical read), ownership allows
//     unconditionally, then a share at or above the action's minimum tier
//     allows, then the override permission (the auditor escape hatch)
//     allows.
//  4. Everything else denies with a reason that does not reveal existence.
func (a *authorizer) Authorize(
	ctx context.Context,
	subject authzDomain.Subject,
	action authzDomain.Action,
	resource *authzDomain.Resource,
) (authzDomain.Decision, error) {
	req, ok := authzDomain.RequirementFor(action)
	if !ok {
		return authzDomain.Deny(fmt.Sprintf("unknown action %q", action)), nil
	}

	// Static role-permission check. Ownership never compensates for a
	// missing permission: a vault_reader cannot create a vault at all.
	perms := authzDomain.EffectivePermissions(subject.Roles)
	if !perms.Has(req.Permission) {
		return authzDomain.Deny(fmt.Sprintf("missing permission %q", req.Permission)), nil
	}

	// Pure role-based actions need no resource check.
	if !req.ResourceScoped || resource == nil {
		return authzDomain.Allow(), nil
	}

	// Soft-deleted resources are invisible to everything except reads
	// explicitly marked as historical (audit trails).
	if resource.IsDeleted && !req.IgnoreSoftDelete {
		return authzDomain.Deny("access denied"), nil
	}

	// Ownership always wins, regardless of any share state.
	if subject.UserID == resource.OwnerID {
		return authzDomain.Allow(), nil
	}

	// Non-owner: consult the sharing manager for a grant at or above the
	// action's minimum tier.
	hasAccess, err := a.shares.HasAccess(ctx, resource.VaultID, subject.UserID, req.MinTier)
	if err != nil {
		// A store failure is retryable, not a definitive deny.
		return authzDomain.Decision{}, apperrors.Wrap(apperrors.ErrTransient, "share lookup failed: "+err.Error())
	}
	if hasAccess {
		return authzDomain.Allow(), nil
	}

	// Cross-user override (e.g. audit.read lets an auditor view others'
	// resources on read actions).
	if req.Override != "" && perms.Has(req.Override) {
		return authzDomain.Allow(), nil
	}

	return authzDomain.Deny("access denied"), nil
}

// NewAuthorizer creates an Authorizer backed by the given share reader.
func NewAuthorizer(shares ShareReader) Authorizer {
	return &authorizer{shares: shares}
}
