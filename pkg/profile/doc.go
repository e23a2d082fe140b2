// Package profile holds the caller identity snapshot and the authorization
// engine every use case consults before acting.
//
// # Profile
//
// A Profile is resolved once per request from persisted grants (see Loader)
// and is never mutated afterwards. It carries the account flags, the tenants
// the caller owns, and one LicensedResource per role grant.
//
// # Authorization
//
// The engine is a set of pure functions over a Profile:
//
//	if err := profile.RequireAdmin(p); err != nil { ... }
//	if err := profile.RequireTenantOwnership(p, tenantID); err != nil { ... }
//
//	related, err := profile.RequireScopedPermission(p, tenantID, permissions.Requirements{
//		{Role: permissions.TenantManager, Level: permissions.Write},
//	})
//
// The default read/write variants fix the level and take roles:
//
//	related, err := p.OnTenant(tenantID).RequireWrite(permissions.TenantManager)
//
// A successful scoped check returns RelatedAccounts, either the explicit
// account ids the caller may touch or AllAccounts for staff, managers and
// owners of the tenant. Repositories receive it as a query filter.
//
// GuardStaffTarget is evaluated separately, after the role check, and
// rejects actors whose trust tier is below the target account's.
//
// All failures are *AuthError and match ErrUnauthorized.
package profile
