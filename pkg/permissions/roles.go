package permissions

import (
	"fmt"
	"strings"
)

// ActorRole is one of the closed set of named roles a grant can carry
type ActorRole string

const (
	TenantOwner          ActorRole = "tenant-owner"
	TenantManager        ActorRole = "tenant-manager"
	GuestManager         ActorRole = "guest-manager"
	SubscriptionsManager ActorRole = "subscriptions-manager"
	SystemManager        ActorRole = "system-manager"
	Staff                ActorRole = "staff"
)

// Tier is the implicit trust rank of an actor. Higher tiers may act on
// lower or equal tiers, never above.
type Tier int

const (
	TierStandard Tier = iota + 1
	TierTenant
	TierManager
	TierStaff
)

var roleTiers = map[ActorRole]Tier{
	GuestManager:         TierStandard,
	SubscriptionsManager: TierStandard,
	TenantManager:        TierTenant,
	TenantOwner:          TierTenant,
	SystemManager:        TierManager,
	Staff:                TierStaff,
}

// AllRoles lists every declared role
func AllRoles() []ActorRole {
	return []ActorRole{TenantOwner, TenantManager, GuestManager, SubscriptionsManager, SystemManager, Staff}
}

// Valid reports whether r is a declared role
func (r ActorRole) Valid() bool {
	_, ok := roleTiers[r]
	return ok
}

// Tier returns the role's trust tier; unknown roles rank below TierStandard
func (r ActorRole) Tier() Tier {
	return roleTiers[r]
}

func (r ActorRole) String() string {
	return string(r)
}

// ParseActorRole validates a role slug
func ParseActorRole(s string) (ActorRole, error) {
	r := ActorRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown actor role %q", s)
	}
	return r, nil
}

func (r *ActorRole) UnmarshalText(text []byte) error {
	parsed, err := ParseActorRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// CanActOn reports whether an actor at tier t may modify a target at tier target
func (t Tier) CanActOn(target Tier) bool {
	return t >= target
}

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierTenant:
		return "tenant"
	case TierManager:
		return "manager"
	case TierStaff:
		return "staff"
	}
	return "none"
}

// AccountTier ranks an account by its flags
func AccountTier(isStaff, isManager bool) Tier {
	switch {
	case isStaff:
		return TierStaff
	case isManager:
		return TierManager
	default:
		return TierStandard
	}
}
