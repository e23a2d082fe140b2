package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/permissions"
)

// VerboseStatus summarises an account's lifecycle flags
type VerboseStatus string

const (
	StatusInactive VerboseStatus = "inactive"
	StatusArchived VerboseStatus = "archived"
	StatusActive   VerboseStatus = "active"
	StatusPending  VerboseStatus = "pending"
)

// DeriveVerboseStatus collapses the account flags; inactive wins over archived
func DeriveVerboseStatus(isActive, wasApproved, wasArchived bool) VerboseStatus {
	switch {
	case !isActive:
		return StatusInactive
	case wasArchived:
		return StatusArchived
	case wasApproved:
		return StatusActive
	default:
		return StatusPending
	}
}

// Owner is a person behind an account
type Owner struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	Username    string    `json:"username,omitempty"`
	IsPrincipal bool      `json:"isPrincipal"`
}

// TenantOwnership records that the caller owns a tenant
type TenantOwnership struct {
	TenantID uuid.UUID `json:"tenantId"`
	Since    time.Time `json:"since"`
}

// LicensedResource is one role grant on an account inside a tenant
type LicensedResource struct {
	AccID      uuid.UUID         `json:"accId"`
	AccName    string            `json:"accName"`
	TenantID   uuid.UUID         `json:"tenantId"`
	Role       string            `json:"role"`
	Permission permissions.Level `json:"perm"`
	Verified   bool              `json:"verified"`
	SysAcc     bool              `json:"sysAcc"`
}

// Profile is the authenticated caller's resolved identity for one request.
// Treat every field as read-only.
type Profile struct {
	AccID              uuid.UUID          `json:"accId"`
	Email              string             `json:"email"`
	IsSubscription     bool               `json:"isSubscription"`
	IsManager          bool               `json:"isManager"`
	IsStaff            bool               `json:"isStaff"`
	OwnerIsActive      bool               `json:"ownerIsActive"`
	AccountIsActive    bool               `json:"accountIsActive"`
	AccountWasApproved bool               `json:"accountWasApproved"`
	AccountWasArchived bool               `json:"accountWasArchived"`
	VerboseStatus      VerboseStatus      `json:"verboseStatus"`
	Owners             []Owner            `json:"owners"`
	Tenants            []TenantOwnership  `json:"tenants,omitempty"`
	LicensedResources  []LicensedResource `json:"licensedResources,omitempty"`
}

// OwnsTenant reports whether tenantID is in the ownership set
func (p *Profile) OwnsTenant(tenantID uuid.UUID) bool {
	for _, t := range p.Tenants {
		if t.TenantID == tenantID {
			return true
		}
	}
	return false
}

// Tier is the caller's trust tier for cross-privilege checks
func (p *Profile) Tier() permissions.Tier {
	return permissions.AccountTier(p.IsStaff, p.IsManager)
}

// ResourcesOnTenant returns the verified grants scoped to tenantID
func (p *Profile) ResourcesOnTenant(tenantID uuid.UUID) []LicensedResource {
	var out []LicensedResource
	for _, r := range p.LicensedResources {
		if r.TenantID == tenantID && r.Verified {
			out = append(out, r)
		}
	}
	return out
}

// LicensedAccountIDs lists, without duplicates, the accounts on which the
// caller holds any of roles at no less than level, across all tenants
func (p *Profile) LicensedAccountIDs(level permissions.Level, roles ...permissions.ActorRole) []uuid.UUID {
	reqs := permissions.WithLevel(level, roles...)
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, r := range p.LicensedResources {
		if !r.Verified || !reqs.Allows(r.Role, r.Permission) {
			continue
		}
		if _, ok := seen[r.AccID]; ok {
			continue
		}
		seen[r.AccID] = struct{}{}
		ids = append(ids, r.AccID)
	}
	return ids
}

// RelatedAccounts is the set of accounts a caller may act on: either an
// explicit list or every account (admin and tenant-owner bypass).
type RelatedAccounts struct {
	all bool
	ids []uuid.UUID
}

// AllAccounts grants access to every account in scope
func AllAccounts() RelatedAccounts {
	return RelatedAccounts{all: true}
}

// AllowedAccounts restricts access to ids
func AllowedAccounts(ids ...uuid.UUID) RelatedAccounts {
	return RelatedAccounts{ids: append([]uuid.UUID(nil), ids...)}
}

// IsAll reports the bypass variant
func (r RelatedAccounts) IsAll() bool {
	return r.all
}

// IDs returns a copy of the explicit ids; nil for AllAccounts
func (r RelatedAccounts) IDs() []uuid.UUID {
	if r.all {
		return nil
	}
	return append([]uuid.UUID(nil), r.ids...)
}

// Contains reports whether id is within scope
func (r RelatedAccounts) Contains(id uuid.UUID) bool {
	if r.all {
		return true
	}
	for _, allowed := range r.ids {
		if allowed == id {
			return true
		}
	}
	return false
}

// TargetAccount is the subset of a target account the staff guard inspects
type TargetAccount struct {
	ID        uuid.UUID
	IsStaff   bool
	IsManager bool
}
