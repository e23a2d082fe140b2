package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/tenancy/pkg/permissions"
)

// ErrUnauthorized matches every *AuthError
var ErrUnauthorized = errors.New("unauthorized")

// AuthErrorKind classifies a denial
type AuthErrorKind string

const (
	KindUnauthenticated               AuthErrorKind = "unauthenticated"
	KindInsufficientPrivileges        AuthErrorKind = "insufficient_privileges"
	KindInsufficientScopedPermissions AuthErrorKind = "insufficient_scoped_permissions"
	KindNotTenantOwner                AuthErrorKind = "not_tenant_owner"
	KindInactiveAccount               AuthErrorKind = "inactive_account"
)

// AuthError is the typed denial returned by every engine check
type AuthError struct {
	Kind         AuthErrorKind
	Message      string
	MissingRoles []permissions.ActorRole
}

func (e *AuthError) Error() string {
	if len(e.MissingRoles) == 0 {
		return e.Message
	}
	roles := make([]string, len(e.MissingRoles))
	for i, r := range e.MissingRoles {
		roles[i] = string(r)
	}
	return fmt.Sprintf("%s (requires one of: %s)", e.Message, strings.Join(roles, ", "))
}

func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Unauthenticated reports whether the denial means "no caller" rather than "caller lacks rights"
func (e *AuthError) Unauthenticated() bool {
	return e.Kind == KindUnauthenticated
}

// IsKind reports whether err is an *AuthError of kind
func IsKind(err error, kind AuthErrorKind) bool {
	var aerr *AuthError
	return errors.As(err, &aerr) && aerr.Kind == kind
}

func deny(kind AuthErrorKind, format string, args ...interface{}) *AuthError {
	return &AuthError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
