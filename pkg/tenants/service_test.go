package tenants

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

type fakeRepository struct {
	tenants map[uuid.UUID]Tenant
	filter  ListFilter
}

func (f *fakeRepository) UpdateNameAndDescription(_ context.Context, id uuid.UUID, name, description *string) (*Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, storage.NotFound("tenant", id)
	}
	if name != nil {
		t.Name = *name
	}
	if description != nil {
		t.Description = *description
	}
	f.tenants[id] = t
	return &t, nil
}

func (f *fakeRepository) List(_ context.Context, filter ListFilter) (storage.Page[Tenant], error) {
	f.filter = filter
	return storage.Page[Tenant]{Count: int64(len(f.tenants))}, nil
}

func strPtr(s string) *string { return &s }

func TestUpdateNameAndDescription(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{tenants: map[uuid.UUID]Tenant{id: {ID: id, Name: "Acme"}}}
	svc := NewService(repo, observability.NewNopLogger(), nil)
	ctx := context.Background()
	owner := &profile.Profile{Tenants: []profile.TenantOwnership{{TenantID: id}}}

	tenant, err := svc.UpdateNameAndDescription(ctx, owner, id, strPtr("  Acme Corp "), nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", tenant.Name)

	tenant, err = svc.UpdateNameAndDescription(ctx, owner, id, nil, strPtr("widgets"))
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", tenant.Name)
	assert.Equal(t, "widgets", tenant.Description)

	_, err = svc.UpdateNameAndDescription(ctx, owner, id, strPtr(" "), nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
	_, err = svc.UpdateNameAndDescription(ctx, owner, id, nil, nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestUpdateNameAndDescription_OwnersOnly(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{tenants: map[uuid.UUID]Tenant{id: {ID: id}}}
	svc := NewService(repo, observability.NewNopLogger(), nil)
	ctx := context.Background()

	otherOwner := &profile.Profile{Tenants: []profile.TenantOwnership{{TenantID: uuid.New()}}}
	_, err := svc.UpdateNameAndDescription(ctx, otherOwner, id, strPtr("x"), nil)
	assert.True(t, profile.IsKind(err, profile.KindNotTenantOwner))

	// admin rank does not imply ownership
	_, err = svc.UpdateNameAndDescription(ctx, &profile.Profile{IsStaff: true}, id, strPtr("x"), nil)
	assert.True(t, profile.IsKind(err, profile.KindNotTenantOwner))

	_, err = svc.UpdateNameAndDescription(ctx, nil, id, strPtr("x"), nil)
	assert.True(t, profile.IsKind(err, profile.KindUnauthenticated))
}

func TestList(t *testing.T) {
	repo := &fakeRepository{tenants: map[uuid.UUID]Tenant{}}
	svc := NewService(repo, observability.NewNopLogger(), nil)
	ctx := context.Background()

	_, err := svc.List(ctx, &profile.Profile{}, ListFilter{})
	assert.True(t, profile.IsKind(err, profile.KindInsufficientPrivileges))

	_, err = svc.List(ctx, &profile.Profile{IsManager: true}, ListFilter{Name: " acme "})
	require.NoError(t, err)
	assert.Equal(t, "acme", repo.filter.Name)
}
