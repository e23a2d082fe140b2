// Package contextkeys provides centralized context key definitions
//
// All context keys used across the module are defined here so that key
// usage stays discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/tenancy/pkg/contextkeys"
//	ctx = context.WithValue(ctx, contextkeys.ProfileKey, p)
//	p, _ := ctx.Value(contextkeys.ProfileKey).(*profile.Profile)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ProfileKey contains *profile.Profile
	// Set by: middleware.ProfileMiddleware (pkg/middleware/profile.go)
	// Required by: every handler that runs an authorization check
	ProfileKey Key = "profile"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestIDMiddleware
	// Used by: Logger, webhook dispatch logs
	RequestIDKey Key = "request_id"

	// AccountIDKey contains the acting account ID string
	// Set by: middleware.ProfileMiddleware after the profile loads
	// Used by: Logger
	AccountIDKey Key = "account_id"

	// LoggerKey contains *observability.Logger
	// Set by: middleware.LoggerMiddleware
	// Used by: Handlers that need structured logging with request context
	LoggerKey Key = "logger"
)

// GetString safely reads a string value
func GetString(ctx context.Context, key Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}
