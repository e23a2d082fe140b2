package webhooks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WebHook is an external endpoint subscribed to one trigger
type WebHook struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	Trigger     Trigger    `json:"trigger"`
	Secret      *Secret    `json:"secret,omitempty"`
	IsActive    bool       `json:"isActive"`
	Created     time.Time  `json:"created"`
	Updated     *time.Time `json:"updated,omitempty"`
}

// Redacted returns a copy safe to hand back to a caller
func (h WebHook) Redacted() WebHook {
	if h.Secret != nil {
		h.Secret = h.Secret.Redacted()
	}
	return h
}

// ListFilter narrows Repository.List. Zero fields do not filter.
type ListFilter struct {
	Name    string
	Trigger Trigger
}

// Lister is the slice of the repository the dispatcher needs.
// ListByTrigger returns only active hooks.
type Lister interface {
	ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error)
}

// Repository persists webhooks with their secrets already encrypted.
// Missing ids yield storage.ErrNotFound and duplicate names storage.ErrConflict.
type Repository interface {
	Lister
	Get(ctx context.Context, id uuid.UUID) (*WebHook, error)
	List(ctx context.Context, filter ListFilter) ([]WebHook, error)
	Create(ctx context.Context, hook *WebHook) error
	Update(ctx context.Context, hook *WebHook) error
	Delete(ctx context.Context, id uuid.UUID) error
}
