// Package domain defines the authorization vocabulary: the permission catalog,
// the role to permission-set mapping, share tiers, and the action requirement
// table consulted by the authorization resolver.
//
// Every authorization check in the application answers "does role R grant
// permission P" through this catalog. Special-casing a role name anywhere
// else is a design defect.
package domain

import (
	"fmt"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// Permission is an atomic named capability on one resource class.
// Permissions are immutable and defined at compile time.
type Permission string

const (
	PermissionVaultCreate Permission = "vault.create"
	PermissionVaultRead   Permission = "vault.read"
	PermissionVaultUpdate Permission = "vault.update"
	PermissionVaultDelete Permission = "vault.delete"
	PermissionVaultShare  Permission = "vault.share"

	PermissionCredentialCreate Permission = "credential.create"
	PermissionCredentialRead   Permission = "credential.read"
	PermissionCredentialUpdate Permission = "credential.update"
	PermissionCredentialDelete Permission = "credential.delete"

	PermissionTagManage Permission = "tag.manage"

	PermissionAuditRead Permission = "audit.read"

	PermissionUserManage    Permission = "user.manage"
	PermissionProfileManage Permission = "profile.manage"
)

// Catalog returns the complete, immutable list of permissions. Role
// definitions are validated against it at startup.
func Catalog() []Permission {
	return []Permission{
		PermissionVaultCreate,
		PermissionVaultRead,
		PermissionVaultUpdate,
		PermissionVaultDelete,
		PermissionVaultShare,
		PermissionCredentialCreate,
		PermissionCredentialRead,
		PermissionCredentialUpdate,
		PermissionCredentialDelete,
		PermissionTagManage,
		PermissionAuditRead,
		PermissionUserManage,
		PermissionProfileManage,
	}
}

// Role is a named, additive set of permissions. There are no negative
// permissions: a subject's effective set is the union of its role sets.
type Role string

const (
	// RoleAdmin holds every permission in the catalog.
	RoleAdmin Role = "admin"

	// RoleSecurityAuditor is read-only plus the audit trail.
	RoleSecurityAuditor Role = "security_auditor"

	// RoleVaultOwner has full CRUD on its own vaults and credentials,
	// but no audit or admin permissions.
	RoleVaultOwner Role = "vault_owner"

	// RoleVaultReader is read-only on vaults and credentials.
	RoleVaultReader Role = "vault_reader"
)

// PermissionSet is a membership set over the permission catalog.
type PermissionSet map[Permission]struct{}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func newPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// rolePermissions is the canonical role to permission-set mapping.
var rolePermissions = map[Role]PermissionSet{
	RoleAdmin: newPermissionSet(Catalog()...),
	RoleSecurityAuditor: newPermissionSet(
		PermissionVaultRead,
		PermissionCredentialRead,
		PermissionAuditRead,
		PermissionProfileManage,
	),
	RoleVaultOwner: newPermissionSet(
		PermissionVaultCreate,
		PermissionVaultRead,
		PermissionVaultUpdate,
		PermissionVaultDelete,
		PermissionVaultShare,
		PermissionCredentialCreate,
		PermissionCredentialRead,
		PermissionCredentialUpdate,
		PermissionCredentialDelete,
		PermissionTagManage,
		PermissionProfileManage,
	),
	RoleVaultReader: newPermissionSet(
		PermissionVaultRead,
		PermissionCredentialRead,
		PermissionProfileManage,
	),
}

// Roles returns the canonical role names.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSecurityAuditor, RoleVaultOwner, RoleVaultReader}
}

// ParseRole resolves a role name to its canonical Role.
func ParseRole(name string) (Role, error) {
	role := Role(name)
	if _, ok := rolePermissions[role]; !ok {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown role %q", name))
	}
	return role, nil
}

// Grants reports whether the role's permission set contains the permission.
// Unknown roles grant nothing.
func (r Role) Grants(p Permission) bool {
	return rolePermissions[r].Has(p)
}

// EffectivePermissions returns the union of the permission sets of all
// assigned roles. The model does not assume a single role per subject.
func EffectivePermissions(roles []Role) PermissionSet {
	set := make(PermissionSet)
	for _, role := range roles {
		for p := range rolePermissions[role] {
			set[p] = struct{}{}
		}
	}
	return set
}

// ValidateRoles checks every role definition against the permission catalog.
// Called once at startup; a role granting a permission outside the catalog
// is a configuration defect.
func ValidateRoles() error {
	catalog := newPermissionSet(Catalog()...)
	for role, perms := range rolePermissions {
		for p := range perms {
			if !catalog.Has(p) {
				return fmt.Errorf("role %q grants permission %q not present in the catalog", role, p)
			}
		}
	}
	return nil
}
