// Package domain defines the immutable audit trail model. Entries are
// append-only: no update or delete operation exists anywhere in the system.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/errors"
)

// Action identifies the kind of event an audit entry records.
type Action string

const (
	ActionUserRegistered     Action = "user.registered"
	ActionUserDeleted        Action = "user.deleted"
	ActionLoginSucceeded     Action = "login.succeeded"
	ActionLoginFailed        Action = "login.failed"
	ActionTokenRefreshed     Action = "token.refreshed"
	ActionLogout             Action = "logout"
	ActionTwoFactorEnabled   Action = "twofactor.enabled"
	ActionTwoFactorDisabled  Action = "twofactor.disabled"
	ActionVaultCreated       Action = "vault.created"
	ActionVaultUpdated       Action = "vault.updated"
	ActionVaultDeleted       Action = "vault.deleted"
	ActionVaultShared        Action = "vault.shared"
	ActionShareRevoked       Action = "share.revoked"
	ActionShareTierChanged   Action = "share.tier_changed"
	ActionInvitationAccepted Action = "invitation.accepted"
	ActionCredentialCreated  Action = "credential.created"
	ActionCredentialRead     Action = "credential.read"
	ActionCredentialUpdated  Action = "credential.updated"
	ActionCredentialDeleted  Action = "credential.deleted"
)

// AuditLog is one immutable record of an authorization-relevant event.
type AuditLog struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Action       Action
	VaultID      *uuid.UUID
	CredentialID *uuid.UUID
	Details      string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}

// Filter narrows audit queries. Nil fields mean no filter; time boundaries
// are inclusive and expected in UTC.
type Filter struct {
	Action        *Action
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// Audit errors.
var (
	// ErrAuditLogNotFound indicates the requested audit entry does not exist.
	ErrAuditLogNotFound = errors.Wrap(errors.ErrNotFound, "audit log not found")
)

// requestInfoKey is a context key type for storing request metadata.
type requestInfoKey struct{}

// RequestInfo carries client metadata captured by the transport layer so
// audit entries can record where an action came from.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// WithRequestInfo returns a context carrying the request metadata.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext extracts request metadata, or a zero value when the
// call did not come through the transport layer.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(RequestInfo); ok {
		return info
	}
	return RequestInfo{}
}
