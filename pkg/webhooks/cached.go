package webhooks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// CachedRepository memoises ListByTrigger, the dispatcher's hot path.
// Any write through it purges the cache. A list that started before a
// write is returned but never cached.
type CachedRepository struct {
	Repository
	cache   *lru.LRU[Trigger, []WebHook]
	metrics *observability.Metrics

	mu         sync.Mutex
	generation uint64
}

// NewCachedRepository wraps next; a non-positive ttl defaults to one minute
func NewCachedRepository(next Repository, ttl time.Duration, metrics *observability.Metrics) *CachedRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRepository{
		Repository: next,
		cache:      lru.NewLRU[Trigger, []WebHook](len(AllTriggers()), nil, ttl),
		metrics:    metrics,
	}
}

func (r *CachedRepository) ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error) {
	if hooks, ok := r.cache.Get(trigger); ok {
		r.metrics.RecordCache("webhooks", true)
		return hooks, nil
	}
	r.metrics.RecordCache("webhooks", false)

	r.mu.Lock()
	gen := r.generation
	r.mu.Unlock()

	hooks, err := r.Repository.ListByTrigger(ctx, trigger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.generation == gen {
		r.cache.Add(trigger, hooks)
	}
	r.mu.Unlock()
	return hooks, nil
}

func (r *CachedRepository) Create(ctx context.Context, hook *WebHook) error {
	defer r.invalidate()
	return r.Repository.Create(ctx, hook)
}

func (r *CachedRepository) Update(ctx context.Context, hook *WebHook) error {
	defer r.invalidate()
	return r.Repository.Update(ctx, hook)
}

func (r *CachedRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.invalidate()
	return r.Repository.Delete(ctx, id)
}

// invalidate runs after the write lands
func (r *CachedRepository) invalidate() {
	r.mu.Lock()
	r.generation++
	r.cache.Purge()
	r.mu.Unlock()
}
