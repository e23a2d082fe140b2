package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// DefaultIdentityHeader is set by the authenticating gateway in front of the service
const DefaultIdentityHeader = "X-Tenancy-Email"

// ProfileLoader resolves the caller's profile by email
type ProfileLoader interface {
	Load(ctx context.Context, email string) (*profile.Profile, error)
}

// ProfileMiddleware attaches the caller's Profile to each request.
// Requests without the identity header continue anonymously; the use cases reject them.
// Inactive or archived callers are refused with 403.
type ProfileMiddleware struct {
	loader  ProfileLoader
	header  string
	metrics *observability.Metrics
}

// NewProfileMiddleware creates the middleware; an empty header means DefaultIdentityHeader
func NewProfileMiddleware(loader ProfileLoader, header string) *ProfileMiddleware {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return &ProfileMiddleware{loader: loader, header: header}
}

// WithMetrics records the active-caller decision
func (m *ProfileMiddleware) WithMetrics(metrics *observability.Metrics) *ProfileMiddleware {
	m.metrics = metrics
	return m
}

// Handler wraps next
func (m *ProfileMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(m.header))
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := m.loader.Load(r.Context(), email)
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "unknown caller")
			return
		}
		if err != nil {
			httputil.WriteDomainError(w, r, err)
			return
		}

		err = profile.RequireActiveCaller(p)
		m.metrics.RecordAuthorization(profile.CheckRequireActiveCaller, err)
		if err != nil {
			httputil.WriteDomainError(w, r, err)
			return
		}

		ctx := profile.WithProfile(r.Context(), p)
		ctx = observability.WithAccountID(ctx, p.AccID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
