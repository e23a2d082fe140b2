package webhooks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

// MemoryRepository keeps webhooks in process; used by tests and single-node setups
type MemoryRepository struct {
	hooks map[uuid.UUID]WebHook
	mutex sync.RWMutex
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{hooks: make(map[uuid.UUID]WebHook)}
}

func (r *MemoryRepository) ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []WebHook
	for _, h := range r.hooks {
		if h.IsActive && h.Trigger == trigger {
			out = append(out, h)
		}
	}
	sortHooks(out)
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*WebHook, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	h, ok := r.hooks[id]
	if !ok {
		return nil, storage.NotFound("webhook", id.String())
	}
	return &h, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]WebHook, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	needle := strings.ToLower(filter.Name)
	var out []WebHook
	for _, h := range r.hooks {
		if needle != "" && !strings.Contains(strings.ToLower(h.Name), needle) {
			continue
		}
		if filter.Trigger != "" && h.Trigger != filter.Trigger {
			continue
		}
		out = append(out, h)
	}
	sortHooks(out)
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, hook *WebHook) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, h := range r.hooks {
		if h.Name == hook.Name {
			return storage.ErrConflict
		}
	}
	if hook.ID == uuid.Nil {
		hook.ID = uuid.New()
	}
	if hook.Created.IsZero() {
		hook.Created = time.Now().UTC()
	}
	r.hooks[hook.ID] = *hook
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, hook *WebHook) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.hooks[hook.ID]; !ok {
		return storage.NotFound("webhook", hook.ID.String())
	}
	for id, h := range r.hooks {
		if id != hook.ID && h.Name == hook.Name {
			return storage.ErrConflict
		}
	}
	now := time.Now().UTC()
	hook.Updated = &now
	r.hooks[hook.ID] = *hook
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.hooks[id]; !ok {
		return storage.NotFound("webhook", id.String())
	}
	delete(r.hooks, id)
	return nil
}

func sortHooks(hooks []WebHook) {
	sort.Slice(hooks, func(i, j int) bool {
		if hooks[i].Name != hooks[j].Name {
			return hooks[i].Name < hooks[j].Name
		}
		return hooks[i].ID.String() < hooks[j].ID.String()
	})
}
