package tenants

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Tenant is the top-level isolation boundary accounts live in
type Tenant struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Created     time.Time  `json:"created"`
	Updated     *time.Time `json:"updated,omitempty"`
}

// Pagination bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter narrows a tenant listing. Zero fields do not filter.
type ListFilter struct {
	Name     string
	Owner    *uuid.UUID
	PageSize int
	Skip     int
}

func (f *ListFilter) normalize() {
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
}

// Repository persists tenants; missing ids yield storage.ErrNotFound
type Repository interface {
	UpdateNameAndDescription(ctx context.Context, id uuid.UUID, name, description *string) (*Tenant, error)
	List(ctx context.Context, filter ListFilter) (storage.Page[Tenant], error)
}
