package profile

import (
	"context"

	"github.com/platinummonkey/tenancy/pkg/contextkeys"
)

// WithProfile stores the request's profile in ctx
func WithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, contextkeys.ProfileKey, p)
}

// FromContext returns the request's profile, or nil for an anonymous request
func FromContext(ctx context.Context) *Profile {
	p, _ := ctx.Value(contextkeys.ProfileKey).(*Profile)
	return p
}
