package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	catalog := Catalog()

	assert.Len(t, catalog, 13)

	// No duplicates.
	seen := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		_, dup := seen[p]
		assert.False(t, dup, "duplicate permission %q", p)
		seen[p] = struct{}{}
	}
}

func TestRole_Grants(t *testing.T) {
	t.Run("admin grants everything", func(t *testing.T) {
		for _, p := range Catalog() {
			assert.True(t, RoleAdmin.Grants(p), "admin should grant %q", p)
		}
	})

	t.Run("security auditor is read-only plus audit", func(t *testing.T) {
		assert.True(t, RoleSecurityAuditor.Grants(PermissionVaultRead))
		assert.True(t, RoleSecurityAuditor.Grants(PermissionCredentialRead))
		assert.True(t, RoleSecurityAuditor.Grants(PermissionAuditRead))
		assert.False(t, RoleSecurityAuditor.Grants(PermissionVaultCreate))
		assert.False(t, RoleSecurityAuditor.Grants(PermissionCredentialDelete))
		assert.False(t, RoleSecurityAuditor.Grants(PermissionUserManage))
	})

	t.Run("vault owner has no audit or admin permissions", func(t *testing.T) {
		assert.True(t, RoleVaultOwner.Grants(PermissionVaultCreate))
		assert.True(t, RoleVaultOwner.Grants(PermissionVaultShare))
		assert.True(t, RoleVaultOwner.Grants(PermissionCredentialDelete))
		assert.False(t, RoleVaultOwner.Grants(PermissionAuditRead))
		assert.False(t, RoleVaultOwner.Grants(PermissionUserManage))
	})

	t.Run("vault reader cannot mutate", func(t *testing.T) {
		assert.True(t, RoleVaultReader.Grants(PermissionVaultRead))
		assert.True(t, RoleVaultReader.Grants(PermissionCredentialRead))
		assert.False(t, RoleVaultReader.Grants(PermissionVaultCreate))
		assert.False(t, RoleVaultReader.Grants(PermissionVaultUpdate))
		assert.False(t, RoleVaultReader.Grants(PermissionCredentialCreate))
	})

	t.Run("unknown role grants nothing", func(t *testing.T) {
		assert.False(t, Role("superuser").Grants(PermissionVaultRead))
	})
}

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestEffectivePermissions(t *testing.T) {
	t.Run("union over multiple roles", func(t *testing.T) {
		perms := EffectivePermissions([]Role{RoleVaultReader, RoleSecurityAuditor})
		assert.True(t, perms.Has(PermissionVaultRead))
		assert.True(t, perms.Has(PermissionAuditRead))
		assert.False(t, perms.Has(PermissionVaultCreate))
	})

	t.Run("no roles means no permissions", func(t *testing.T) {
		perms := EffectivePermissions(nil)
		assert.Empty(t, perms)
	})
}

func TestValidateRoles(t *testing.T) {
	assert.NoError(t, ValidateRoles())
}

func TestRequirementFor(t *testing.T) {
	t.Run("every action has a requirement drawn from the catalog", func(t *testing.T) {
		catalog := make(map[Permission]struct{})
		for _, p := range Catalog() {
			catalog[p] = struct{}{}
		}

		actions := []Action{
			ActionVaultCreate, ActionVaultRead, ActionVaultUpdate, ActionVaultDelete,
			ActionVaultShare, ActionCredentialCreate, ActionCredentialRead,
			ActionCredentialUpdate, ActionCredentialDelete, ActionTagManage,
			ActionAuditRead, ActionUserManage, ActionProfileManage,
		}
		for _, action := range actions {
			req, ok := RequirementFor(action)
			require.True(t, ok, "missing requirement for %q", action)
			_, inCatalog := catalog[req.Permission]
			assert.True(t, inCatalog, "action %q requires permission outside the catalog", action)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		_, ok := RequirementFor(Action("vault.transfer"))
		assert.False(t, ok)
	})

	t.Run("credential reads require the view tier", func(t *testing.T) {
		req, ok := RequirementFor(ActionCredentialRead)
		require.True(t, ok)
		assert.True(t, req.ResourceScoped)
		assert.Equal(t, TierView, req.MinTier)
	})

	t.Run("sharing requires the admin tier", func(t *testing.T) {
		req, ok := RequirementFor(ActionVaultShare)
		require.True(t, ok)
		assert.Equal(t, TierAdmin, req.MinTier)
	})
}
