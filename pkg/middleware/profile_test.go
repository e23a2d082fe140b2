package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

type stubLoader struct {
	profiles map[string]*profile.Profile
	err      error
}

func (s stubLoader) Load(ctx context.Context, email string) (*profile.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[email]
	if !ok {
		return nil, storage.NotFound("profile", email)
	}
	return p, nil
}

func serve(m *ProfileMiddleware, r *http.Request) (*httptest.ResponseRecorder, *profile.Profile, bool) {
	var (
		seen   *profile.Profile
		called bool
	)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = profile.FromContext(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), observability.NewNopLogger())))
	return w, seen, called
}

func TestProfileMiddleware(t *testing.T) {
	jane := &profile.Profile{AccID: uuid.New(), Email: "jane@example.com", OwnerIsActive: true, AccountIsActive: true}
	archived := &profile.Profile{AccID: uuid.New(), Email: "old@example.com", OwnerIsActive: true, AccountIsActive: true, AccountWasArchived: true}
	disabled := &profile.Profile{AccID: uuid.New(), Email: "off@example.com", OwnerIsActive: true}
	loader := stubLoader{profiles: map[string]*profile.Profile{
		"jane@example.com": jane,
		"old@example.com":  archived,
		"off@example.com":  disabled,
	}}

	t.Run("attaches profile", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(DefaultIdentityHeader, "jane@example.com")
		_, seen, called := serve(NewProfileMiddleware(loader, ""), r)
		assert.True(t, called)
		assert.Same(t, jane, seen)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		_, seen, called := serve(NewProfileMiddleware(loader, ""), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
		assert.Nil(t, seen)
	})

	t.Run("unknown caller is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(DefaultIdentityHeader, "ghost@example.com")
		w, _, called := serve(NewProfileMiddleware(loader, ""), r)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("archived or inactive callers are refused", func(t *testing.T) {
		metrics := observability.NewMetrics(prometheus.NewRegistry())
		m := NewProfileMiddleware(loader, "").WithMetrics(metrics)
		for _, email := range []string{"old@example.com", "off@example.com"} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(DefaultIdentityHeader, email)
			w, _, called := serve(m, r)
			assert.False(t, called, email)
			assert.Equal(t, http.StatusForbidden, w.Code, email)
			assert.Contains(t, w.Body.String(), string(profile.KindInactiveAccount))
		}
		assert.Equal(t, float64(2), testutil.ToFloat64(
			metrics.AuthorizationDecisionsTotal.WithLabelValues(profile.CheckRequireActiveCaller, observability.OutcomeDenied)))
	})

	t.Run("loader failure is a server error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Custom", "jane@example.com")
		w, _, called := serve(NewProfileMiddleware(stubLoader{err: errors.New("db down")}, "X-Custom"), r)
		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
