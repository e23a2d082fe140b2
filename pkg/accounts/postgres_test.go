package accounts

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

	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

var accountRowColumns = []string{
	"id", "name", "slug", "tenant_id", "is_active", "is_checked", "is_archived",
	"is_subscription", "is_manager", "is_staff", "created_at", "updated_at",
}

// idArray matches a pq.Array of uuid strings
type idArray []string

func (a idArray) Match(v driver.Value) bool {
	var got pq.StringArray
	if err := got.Scan(v); err != nil {
		return false
	}
	return assert.ObjectsAreEqual([]string(a), []string(got))
}

func TestPostgresRepository_GetRestrictsToRelated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM accounts WHERE id = \$1 AND id = ANY\(\$2\)`).
		WithArgs(id.String(), idArray{id.String()}).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(
			id.String(), "Shop", "shop", tenantA.String(), true, true, false, true, false, false, time.Now(), nil))

	account, err := NewPostgresRepository(db).Get(context.Background(), id, profile.AllowedAccounts(id))
	require.NoError(t, err)
	assert.True(t, account.InTenant(tenantA))
	assert.Equal(t, profile.StatusActive, account.VerboseStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetAllAccountsHasNoIDFilter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(
		func(expected, actual string) error {
			if strings.Contains(actual, "ANY(") {
				return errors.New("unexpected id restriction")
			}
			return nil
		})))
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`accounts`).WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(
			id.String(), "Root", "root", nil, true, true, false, false, false, true, time.Now(), time.Now()))

	account, err := NewPostgresRepository(db).Get(context.Background(), id, profile.AllAccounts())
	require.NoError(t, err)
	assert.Nil(t, account.TenantID)
	assert.True(t, account.IsStaff)
	assert.NotNil(t, account.Updated)
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM accounts WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err = NewPostgresRepository(db).Get(context.Background(), id, profile.AllowedAccounts())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPostgresRepository_CreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO accounts`).
		WillReturnError(&pq.Error{Code: "23505", Detail: "Key (tenant_id, slug) already exists."})

	err = NewPostgresRepository(db).Create(context.Background(), &Account{Name: "Shop", Slug: "shop", TenantID: &tenantA})
	assert.True(t, errors.Is(err, storage.ErrConflict))
}

func TestPostgresRepository_UpdateNameMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`UPDATE accounts SET name = \$1, slug = \$2.*AND is_subscription AND id = ANY\(\$5\) RETURNING`).
		WithArgs("New Name", "new-name", id.String(), tenantA.String(), idArray{}).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err = NewPostgresRepository(db).UpdateName(context.Background(), tenantA, id, "New Name", profile.AllowedAccounts())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1 AND tenant_id = \$2 AND is_subscription$`).
		WithArgs(id.String(), tenantA.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).Delete(context.Background(), tenantA, id, profile.AllAccounts())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestGuestPostgresRepository_GetOrCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	guestID, roleID, accID := uuid.New(), uuid.New(), uuid.New()
	created := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO guest_users .* ON CONFLICT \(email, guest_role_id\)`).
		WithArgs(sqlmock.AnyArg(), "guest@example.com", roleID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "was_verified", "created_at"}).AddRow(guestID.String(), false, created))
	mock.ExpectExec(`INSERT INTO guest_user_accounts`).
		WithArgs(guestID.String(), accID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := NewGuestPostgresRepository(db).GetOrCreate(context.Background(),
		GuestUser{Email: "guest@example.com", RoleID: roleID, AccountID: accID})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, guestID, res.Record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestPostgresRepository_AlreadyLinked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO guest_users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "was_verified", "created_at"}).AddRow(uuid.New().String(), true, time.Now()))
	mock.ExpectExec(`INSERT INTO guest_user_accounts`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := NewGuestPostgresRepository(db).GetOrCreate(context.Background(),
		GuestUser{Email: "guest@example.com", RoleID: uuid.New(), AccountID: uuid.New()})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, ReasonAlreadyInvited, res.Reason)
	assert.True(t, res.Record.WasVerified)
}

func TestGuestPostgresRepository_RemoveMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM guest_user_accounts gua`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewGuestPostgresRepository(db).Remove(context.Background(),
		GuestUser{Email: "guest@example.com", RoleID: uuid.New(), AccountID: uuid.New()})
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPostgresRepository_OwnerEmails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT email FROM owners WHERE account_id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("a@example.com").AddRow("b@example.com"))

	emails, err := NewPostgresRepository(db).OwnerEmails(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails)
	assert.NoError(t, mock.ExpectationsWereMet())
}
