package domain

// Action names one operation a subject can attempt. Every action maps to a
// single required permission; resource-scoped actions additionally carry the
// minimum share tier a non-owner needs on the target vault.
type Action string

const (
	ActionVaultCreate Action = "vault.create"
	ActionVaultRead   Action = "vault.read"
	ActionVaultUpdate Action = "vault.update"
	ActionVaultDelete Action = "vault.delete"
	ActionVaultShare  Action = "vault.share"

	ActionCredentialCreate Action = "credential.create"
	ActionCredentialRead   Action = "credential.read"
	ActionCredentialUpdate Action = "credential.update"
	ActionCredentialDelete Action = "credential.delete"

	ActionTagManage Action = "tag.manage"

	ActionAuditRead Action = "audit.read"

	// ActionVaultAuditRead is reading the audit trail of one vault. It keeps
	// working after the vault is soft-deleted so history stays resolvable.
	ActionVaultAuditRead Action = "vault.audit_read"

	ActionUserManage    Action = "user.manage"
	ActionProfileManage Action = "profile.manage"
)

// Requirement describes what an action demands from a subject.
type Requirement struct {
	// Permission is the static permission the subject's effective set must
	// contain. Checked first; failure denies without any resource lookup.
	Permission Permission

	// ResourceScoped indicates the action targets a specific vault (or a
	// credential within one) and needs an ownership/share check.
	ResourceScoped bool

	// MinTier is the minimum share tier a non-owner needs. Only meaningful
	// when ResourceScoped is true.
	MinTier Tier

	// Override, when non-empty, names a permission that grants cross-user
	// access to the resource regardless of ownership or shares. Used as the
	// auditor escape hatch on read actions.
	Override Permission

	// IgnoreSoftDelete marks reads that must resolve soft-deleted vaults,
	// such as audit trails referencing historical resources.
	IgnoreSoftDelete bool
}

// requirements is the action requirement table. Credential reads require the
// View tier explicitly: share existence alone is never sufficient, the stored
// tier is always compared against the minimum.
var requirements = map[Action]Requirement{
	ActionVaultCreate: {Permission: PermissionVaultCreate},
	ActionVaultRead: {
		Permission:     PermissionVaultRead,
		ResourceScoped: true,
		MinTier:        TierView,
		Override:       PermissionAuditRead,
	},
	ActionVaultUpdate: {
		Permission:     PermissionVaultUpdate,
		ResourceScoped: true,
		MinTier:        TierEdit,
	},
	ActionVaultDelete: {
		Permission:     PermissionVaultDelete,
		ResourceScoped: true,
		MinTier:        TierAdmin,
	},
	ActionVaultShare: {
		Permission:     PermissionVaultShare,
		ResourceScoped: true,
		MinTier:        TierAdmin,
	},
	ActionCredentialCreate: {
		Permission:     PermissionCredentialCreate,
		ResourceScoped: true,
		MinTier:        TierEdit,
	},
	ActionCredentialRead: {
		Permission:     PermissionCredentialRead,
		ResourceScoped: true,
		MinTier:        TierView,
		Override:       PermissionAuditRead,
	},
	ActionCredentialUpdate: {
		Permission:     PermissionCredentialUpdate,
		ResourceScoped: true,
		MinTier:        TierEdit,
	},
	ActionCredentialDelete: {
		Permission:     PermissionCredentialDelete,
		ResourceScoped: true,
		MinTier:        TierEdit,
	},
	ActionTagManage: {
		Permission:     PermissionTagManage,
		ResourceScoped: true,
		MinTier:        TierEdit,
	},
	ActionAuditRead: {
		Permission:       PermissionAuditRead,
		IgnoreSoftDelete: true,
	},
	ActionVaultAuditRead: {
		Permission:       PermissionVaultRead,
		ResourceScoped:   true,
		MinTier:          TierView,
		Override:         PermissionAuditRead,
		IgnoreSoftDelete: true,
	},
	ActionUserManage:    {Permission: PermissionUserManage},
	ActionProfileManage: {Permission: PermissionProfileManage},
}

// RequirementFor returns the requirement for an action. The second return
// value is false for unknown actions, which callers must treat as a deny.
func RequirementFor(action Action) (Requirement, bool) {
	req, ok := requirements[action]
	return req, ok
}
