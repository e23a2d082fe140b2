package webhooks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

type countingRepository struct {
	*MemoryRepository
	listCalls int
}

func (r *countingRepository) ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error) {
	r.listCalls++
	return r.MemoryRepository.ListByTrigger(ctx, trigger)
}

func TestCachedRepository(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepository{MemoryRepository: NewMemoryRepository()}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	repo := NewCachedRepository(inner, time.Minute, metrics)

	hook := WebHook{Name: "one", URL: "http://a.test", Trigger: TriggerCreateUserAccount, IsActive: true}
	require.NoError(t, repo.Create(ctx, &hook))

	for i := 0; i < 3; i++ {
		hooks, err := repo.ListByTrigger(ctx, TriggerCreateUserAccount)
		require.NoError(t, err)
		assert.Len(t, hooks, 1)
	}
	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("webhooks")))

	hook.IsActive = false
	require.NoError(t, repo.Update(ctx, &hook))
	hooks, err := repo.ListByTrigger(ctx, TriggerCreateUserAccount)
	require.NoError(t, err)
	assert.Empty(t, hooks, "update purges the cache")
	assert.Equal(t, 2, inner.listCalls)

	require.NoError(t, repo.Delete(ctx, hook.ID))
	_, err = repo.ListByTrigger(ctx, TriggerCreateUserAccount)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.listCalls)

	assert.Error(t, repo.Delete(ctx, uuid.New()))
}

// blockingRepository parks the first ListByTrigger until release is closed
type blockingRepository struct {
	*MemoryRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRepository) ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error) {
	hooks, err := r.MemoryRepository.ListByTrigger(ctx, trigger)
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return hooks, err
}

func TestCachedRepository_WriteDuringListIsNotMasked(t *testing.T) {
	ctx := context.Background()
	inner := &blockingRepository{
		MemoryRepository: NewMemoryRepository(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	repo := NewCachedRepository(inner, time.Hour, nil)

	done := make(chan []WebHook)
	go func() {
		hooks, _ := repo.ListByTrigger(ctx, TriggerCreateUserAccount)
		done <- hooks
	}()
	<-inner.entered

	hook := WebHook{Name: "late", URL: "http://a.test", Trigger: TriggerCreateUserAccount, IsActive: true}
	require.NoError(t, repo.Create(ctx, &hook))
	close(inner.release)
	assert.Empty(t, <-done, "the in-flight list predates the write")

	hooks, err := repo.ListByTrigger(ctx, TriggerCreateUserAccount)
	require.NoError(t, err)
	assert.Len(t, hooks, 1)
}
