package profile

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// Source fetches a fresh profile from the grant repository
type Source interface {
	FetchProfile(ctx context.Context, email string) (*Profile, error)
}

// Loader resolves a request's Profile, consulting the cache first.
// Cache failures are logged and never fail the load.
type Loader struct {
	source  Source
	cache   Cache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewLoader creates a loader; cache and metrics may be nil
func NewLoader(source Source, cache Cache, logger *observability.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{source: source, cache: cache, logger: logger, metrics: metrics}
}

// Load returns the profile for email
func (l *Loader) Load(ctx context.Context, email string) (*Profile, error) {
	ctx, span := observability.Tracer().Start(ctx, "profile.Load")
	defer span.End()

	if l.cache != nil {
		p, ok, err := l.cache.Get(ctx, email)
		if err != nil {
			l.logger.WithError(err).Warn("Profile cache read failed")
		}
		l.metrics.RecordCache("profile", ok)
		if ok {
			span.SetAttributes(attribute.Bool("profile.cached", true))
			return p, nil
		}
	}

	p, err := l.source.FetchProfile(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, p); err != nil {
			l.logger.WithError(err).Warn("Profile cache write failed")
		}
	}
	return p, nil
}

// Invalidate drops a cached profile after its grants change
func (l *Loader) Invalidate(ctx context.Context, email string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx, email); err != nil {
		l.logger.WithError(err).WithField("email", email).Warn("Profile cache invalidation failed")
	}
}
