package profile

import (
	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/permissions"
)

// Check names reported alongside authorization metrics
const (
	CheckRequireAdmin           = "require_admin"
	CheckRequireTenantOwnership = "require_tenant_ownership"
	CheckRequireScoped          = "require_scoped_permission"
	CheckGuardStaffTarget       = "guard_staff_target"
	CheckRequireActiveCaller    = "require_active_caller"
)

var errNoProfile = deny(KindUnauthenticated, "no authenticated profile")

// RequireAdmin passes for managers and staff
func RequireAdmin(p *Profile) error {
	if p == nil {
		return errNoProfile
	}
	if p.IsManager || p.IsStaff {
		return nil
	}
	return deny(KindInsufficientPrivileges, "account %s is neither manager nor staff", p.AccID)
}

// RequireActiveCaller rejects callers whose owner or account is inactive,
// or whose account is archived
func RequireActiveCaller(p *Profile) error {
	if p == nil {
		return errNoProfile
	}
	if !p.OwnerIsActive || !p.AccountIsActive || p.AccountWasArchived {
		return deny(KindInactiveAccount, "account %s is %s", p.AccID, p.VerboseStatus)
	}
	return nil
}

// RequireTenantOwnership passes when the caller owns tenantID
func RequireTenantOwnership(p *Profile, tenantID uuid.UUID) error {
	if p == nil {
		return errNoProfile
	}
	if p.OwnsTenant(tenantID) {
		return nil
	}
	return deny(KindNotTenantOwner, "account %s does not own tenant %s", p.AccID, tenantID)
}

// RequireScopedPermission intersects the caller's verified grants on
// tenantID with reqs. Any one satisfied requirement is enough.
//
// Staff and managers bypass the intersection, as do tenant owners when
// TenantOwner is among the required roles; they receive AllAccounts.
// Otherwise the result lists the accounts carrying a matching grant.
func RequireScopedPermission(p *Profile, tenantID uuid.UUID, reqs permissions.Requirements) (RelatedAccounts, error) {
	if p == nil {
		return RelatedAccounts{}, errNoProfile
	}
	if len(reqs) == 0 {
		return RelatedAccounts{}, deny(KindInsufficientScopedPermissions, "no role requirement declared")
	}

	if p.IsStaff || p.IsManager {
		return AllAccounts(), nil
	}
	if p.OwnsTenant(tenantID) && requiresRole(reqs, permissions.TenantOwner) {
		return AllAccounts(), nil
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, r := range p.ResourcesOnTenant(tenantID) {
		if !reqs.Allows(r.Role, r.Permission) {
			continue
		}
		if _, ok := seen[r.AccID]; ok {
			continue
		}
		seen[r.AccID] = struct{}{}
		ids = append(ids, r.AccID)
	}

	if len(ids) == 0 {
		return RelatedAccounts{}, &AuthError{
			Kind:         KindInsufficientScopedPermissions,
			Message:      "insufficient permissions on tenant " + tenantID.String(),
			MissingRoles: reqs.Roles(),
		}
	}
	return AllowedAccounts(ids...), nil
}

// RequireDefaultRead is RequireScopedPermission with every role at Read
func RequireDefaultRead(p *Profile, tenantID uuid.UUID, roles ...permissions.ActorRole) (RelatedAccounts, error) {
	return RequireScopedPermission(p, tenantID, permissions.WithLevel(permissions.Read, roles...))
}

// RequireDefaultWrite is RequireScopedPermission with every role at Write
func RequireDefaultWrite(p *Profile, tenantID uuid.UUID, roles ...permissions.ActorRole) (RelatedAccounts, error) {
	return RequireScopedPermission(p, tenantID, permissions.WithLevel(permissions.Write, roles...))
}

// GuardStaffTarget rejects actors ranked below the target account's tier,
// e.g. a manager editing a staff account. It does not look at grants.
func GuardStaffTarget(p *Profile, target TargetAccount) error {
	if p == nil {
		return errNoProfile
	}
	targetTier := permissions.AccountTier(target.IsStaff, target.IsManager)
	if p.Tier().CanActOn(targetTier) {
		return nil
	}
	return deny(KindInsufficientPrivileges,
		"%s accounts cannot modify %s account %s", p.Tier(), targetTier, target.ID)
}

// RequireAnyTenant runs the scoped intersection against every tenant at once,
// for resources that are not owned by a tenant (guest roles). Staff and
// managers bypass it.
func RequireAnyTenant(p *Profile, reqs permissions.Requirements) error {
	if p == nil {
		return errNoProfile
	}
	if p.IsStaff || p.IsManager {
		return nil
	}
	for _, r := range p.LicensedResources {
		if r.Verified && reqs.Allows(r.Role, r.Permission) {
			return nil
		}
	}
	return &AuthError{
		Kind:         KindInsufficientScopedPermissions,
		Message:      "insufficient permissions",
		MissingRoles: reqs.Roles(),
	}
}

func requiresRole(reqs permissions.Requirements, role permissions.ActorRole) bool {
	for _, r := range reqs {
		if r.Role == role {
			return true
		}
	}
	return false
}

// TenantScope binds a profile to one tenant so checks read as a chain
type TenantScope struct {
	profile  *Profile
	tenantID uuid.UUID
}

// OnTenant scopes subsequent checks to tenantID
func (p *Profile) OnTenant(tenantID uuid.UUID) TenantScope {
	return TenantScope{profile: p, tenantID: tenantID}
}

// TenantID returns the bound tenant
func (s TenantScope) TenantID() uuid.UUID {
	return s.tenantID
}

// Require runs RequireScopedPermission on the bound tenant
func (s TenantScope) Require(reqs permissions.Requirements) (RelatedAccounts, error) {
	return RequireScopedPermission(s.profile, s.tenantID, reqs)
}

// RequireRead runs RequireDefaultRead on the bound tenant
func (s TenantScope) RequireRead(roles ...permissions.ActorRole) (RelatedAccounts, error) {
	return RequireDefaultRead(s.profile, s.tenantID, roles...)
}

// RequireWrite runs RequireDefaultWrite on the bound tenant
func (s TenantScope) RequireWrite(roles ...permissions.ActorRole) (RelatedAccounts, error) {
	return RequireDefaultWrite(s.profile, s.tenantID, roles...)
}

// RequireOwnership runs RequireTenantOwnership on the bound tenant
func (s TenantScope) RequireOwnership() error {
	return RequireTenantOwnership(s.profile, s.tenantID)
}
