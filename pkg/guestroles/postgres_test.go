package guestroles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

var roleRowColumns = []string{"id", "name", "slug", "description", "permission", "created_at", "updated_at"}

func TestPostgresRepository_GetOrCreateInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO guest_roles .* ON CONFLICT \(name\) DO NOTHING`).
		WithArgs(id.String(), "Billing Viewer", "billing-viewer", "", "read").
		WillReturnRows(sqlmock.NewRows(roleRowColumns).
			AddRow(id.String(), "Billing Viewer", "billing-viewer", nil, "read", now, nil))

	res, err := NewPostgresRepository(db).GetOrCreate(context.Background(), GuestRole{
		ID: id, Name: "Billing Viewer", Slug: "billing-viewer", Permission: permissions.Read,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, permissions.Read, res.Record.Permission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetOrCreateExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	existing := uuid.New()
	mock.ExpectQuery(`INSERT INTO guest_roles`).
		WillReturnRows(sqlmock.NewRows(roleRowColumns))
	mock.ExpectQuery(`FROM guest_roles WHERE name = \$1`).WithArgs("Billing Viewer").
		WillReturnRows(sqlmock.NewRows(roleRowColumns).
			AddRow(existing.String(), "Billing Viewer", "billing-viewer", "legacy", "write", time.Now(), time.Now()))

	res, err := NewPostgresRepository(db).GetOrCreate(context.Background(), GuestRole{
		Name: "Billing Viewer", Slug: "billing-viewer", Permission: permissions.Read,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, ReasonAlreadyExists, res.Reason)
	assert.Equal(t, existing, res.Record.ID)
	assert.Equal(t, permissions.Write, res.Record.Permission)
	assert.NotNil(t, res.Record.Updated)
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM guest_roles WHERE id = \$1`).WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(roleRowColumns))

	_, err = NewPostgresRepository(db).Get(context.Background(), id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPostgresRepository_ListByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM guest_roles WHERE name ILIKE '%' \|\| \$1 \|\| '%' ORDER BY name`).
		WithArgs("view'; DROP TABLE guest_roles; --").
		WillReturnRows(sqlmock.NewRows(roleRowColumns))

	roles, err := NewPostgresRepository(db).List(context.Background(), "view'; DROP TABLE guest_roles; --")
	require.NoError(t, err)
	assert.Empty(t, roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM guest_roles WHERE id = \$1`).WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).Delete(context.Background(), id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
