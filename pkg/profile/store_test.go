package profile

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

var ownerColumns = []string{
	"id", "email", "first_name", "last_name", "username", "is_principal", "is_active",
	"id", "is_active", "is_checked", "is_archived", "is_subscription", "is_manager", "is_staff",
}

var resourceColumns = []string{"acc_id", "acc_name", "tenant_id", "role", "permission", "verified", "sys_acc"}

func TestStore_FetchProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ownerID := uuid.New()
	accID := uuid.New()
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM owners o\s+JOIN accounts a`).
		WithArgs("Jane@Example.com").
		WillReturnRows(sqlmock.NewRows(ownerColumns).AddRow(
			ownerID.String(), "jane@example.com", "Jane", nil, nil, true, true,
			accID.String(), true, true, false, false, true, false,
		))
	mock.ExpectQuery(`SELECT tenant_id, since FROM tenant_owners WHERE owner_id = \$1`).
		WithArgs(ownerID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "since"}).AddRow(tenantA.String(), since))
	mock.ExpectQuery(`FROM licensed_resources\s+WHERE lower\(email\) = lower\(\$1\)\s+ORDER BY`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(resourceColumns).
			AddRow(accOne.String(), "Billing", tenantA.String(), "tenant-manager", "write", true, false))

	p, err := NewStore(db).FetchProfile(context.Background(), "Jane@Example.com")
	require.NoError(t, err)

	assert.Equal(t, accID, p.AccID)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.True(t, p.IsManager)
	assert.False(t, p.IsStaff)
	assert.Equal(t, StatusActive, p.VerboseStatus)
	require.Len(t, p.Owners, 1)
	assert.Equal(t, "Jane", p.Owners[0].FirstName)
	assert.Empty(t, p.Owners[0].LastName)
	assert.Equal(t, []TenantOwnership{{TenantID: tenantA, Since: since}}, p.Tenants)
	require.Len(t, p.LicensedResources, 1)
	assert.Equal(t, permissions.Write, p.LicensedResources[0].Permission)
	assert.Equal(t, "Billing", p.LicensedResources[0].AccName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FetchProfile_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM owners o`).WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(ownerColumns))

	_, err = NewStore(db).FetchProfile(context.Background(), "ghost@example.com")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_FetchProfile_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM owners o`).WillReturnError(errors.New("connection reset"))

	_, err = NewStore(db).FetchProfile(context.Background(), "x@example.com")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

type arrayArg struct {
	want []string
}

func (a arrayArg) Match(v driver.Value) bool {
	var got pq.StringArray
	if err := got.Scan(v); err != nil {
		return false
	}
	if len(got) != len(a.want) {
		return false
	}
	for i := range got {
		if got[i] != a.want[i] {
			return false
		}
	}
	return true
}

func TestStore_ListLicensedResources_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	verified := true
	related := AllowedAccounts(accOne, accTwo)
	filter := LicensedResourceFilter{
		TenantID:    &tenantA,
		Roles:       []string{"tenant-manager", "subscriptions-manager"},
		MinLevel:    permissions.Write,
		Related:     &related,
		WasVerified: &verified,
	}

	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\) AND tenant_id = \$2 AND role = ANY\(\$3\) AND permission = ANY\(\$4\) AND acc_id = ANY\(\$5\) AND verified = \$6`).
		WithArgs(
			"guest@example.com",
			tenantA.String(),
			arrayArg{[]string{"tenant-manager", "subscriptions-manager"}},
			arrayArg{[]string{"write", "read_write"}},
			arrayArg{[]string{accOne.String(), accTwo.String()}},
			true,
		).
		WillReturnRows(sqlmock.NewRows(resourceColumns).
			AddRow(accTwo.String(), "Ops", tenantA.String(), "subscriptions-manager", "read_write", true, true))

	out, err := NewStore(db).ListLicensedResources(context.Background(), "guest@example.com", filter)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, accTwo, out[0].AccID)
	assert.True(t, out[0].SysAcc)
	assert.Equal(t, permissions.ReadWrite, out[0].Permission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListLicensedResources_AllAccountsDoesNotFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	all := AllAccounts()
	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)\s+ORDER BY`).
		WithArgs("guest@example.com").
		WillReturnRows(sqlmock.NewRows(resourceColumns))

	out, err := NewStore(db).ListLicensedResources(context.Background(), "guest@example.com", LicensedResourceFilter{Related: &all})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListLicensedResources_ValueNeverInQueryText(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(expected, actual string) error {
		if containsAny(actual, "'; DROP", "evil") {
			return errors.New("filter value leaked into query text")
		}
		return nil
	})))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows(resourceColumns))

	_, err = NewStore(db).ListLicensedResources(context.Background(), "evil'; DROP TABLE owners; --",
		LicensedResourceFilter{Roles: []string{"evil'; DROP"}})
	assert.NoError(t, err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
