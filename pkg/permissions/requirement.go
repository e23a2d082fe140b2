package permissions

import "strings"

// Requirement is the atomic unit checked against a grant: a role slug
// held at no less than Level.
type Requirement struct {
	Role  ActorRole `json:"role"`
	Level Level     `json:"level"`
}

// Allows reports whether a grant of (roleSlug, level) satisfies r
func (r Requirement) Allows(roleSlug string, level Level) bool {
	return roleSlug == string(r.Role) && level.Satisfies(r.Level)
}

func (r Requirement) String() string {
	return r.Role.String() + ":" + r.Level.String()
}

// Requirements is a disjunction: any single satisfied entry is enough
type Requirements []Requirement

// WithLevel builds requirements sharing one minimum level
func WithLevel(level Level, roles ...ActorRole) Requirements {
	reqs := make(Requirements, 0, len(roles))
	for _, role := range roles {
		reqs = append(reqs, Requirement{Role: role, Level: level})
	}
	return reqs
}

// Allows reports whether any requirement accepts the grant
func (rs Requirements) Allows(roleSlug string, level Level) bool {
	for _, r := range rs {
		if r.Allows(roleSlug, level) {
			return true
		}
	}
	return false
}

// Roles returns the distinct roles named, in declaration order
func (rs Requirements) Roles() []ActorRole {
	seen := make(map[ActorRole]struct{}, len(rs))
	roles := make([]ActorRole, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.Role]; ok {
			continue
		}
		seen[r.Role] = struct{}{}
		roles = append(roles, r.Role)
	}
	return roles
}

// RoleSlugs returns Roles as plain strings for repository filters
func (rs Requirements) RoleSlugs() []string {
	roles := rs.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (rs Requirements) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
