package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/platinummonkey/tenancy/pkg/guestroles"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// ReasonAlreadyInvited is reported when the guest already holds the role on the account
const ReasonAlreadyInvited = "Guest already invited"

const accountColumns = `id, name, slug, tenant_id, is_active, is_checked, is_archived,
	is_subscription, is_manager, is_staff, created_at, updated_at`

// PostgresRepository stores accounts and guest invitations
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new account repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// restrict appends an id filter for non-bypass related sets
func restrict(query string, args []interface{}, related profile.RelatedAccounts) (string, []interface{}) {
	if related.IsAll() {
		return query, args
	}
	ids := make([]string, 0, len(related.IDs()))
	for _, id := range related.IDs() {
		ids = append(ids, id.String())
	}
	args = append(args, pq.Array(ids))
	return query + fmt.Sprintf(" AND id = ANY($%d)", len(args)), args
}

func (r *PostgresRepository) Create(ctx context.Context, account *Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	var tenantID uuid.NullUUID
	if account.TenantID != nil {
		tenantID = uuid.NullUUID{UUID: *account.TenantID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, name, slug, tenant_id, is_active, is_checked, is_subscription)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		account.ID, account.Name, account.Slug, tenantID,
		account.IsActive, account.IsChecked, account.IsSubscription,
	).Scan(&account.Created)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", storage.TranslatePQError(err))
	}
	account.deriveStatus()
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID, related profile.RelatedAccounts) (*Account, error) {
	query, args := restrict(`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, []interface{}{id}, related)
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("account", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string, related profile.RelatedAccounts) (*Account, error) {
	query, args := restrict(`
		UPDATE accounts SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3 AND tenant_id = $4 AND is_subscription`,
		[]interface{}{name, guestroles.Slugify(name), id, tenantID}, related)

	account, err := scanAccount(r.db.QueryRowContext(ctx, query+` RETURNING `+accountColumns, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("account", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", storage.TranslatePQError(err))
	}
	return account, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id uuid.UUID, related profile.RelatedAccounts) error {
	query, args := restrict(`DELETE FROM accounts WHERE id = $1 AND tenant_id = $2 AND is_subscription`,
		[]interface{}{id, tenantID}, related)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound("account", id.String())
	}
	return nil
}

func (r *PostgresRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, `
		UPDATE accounts SET is_archived = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+accountColumns, archived, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("account", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update archival status: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) OwnerEmails(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM owners WHERE account_id = $1 ORDER BY email`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list account owners: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan owner email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*Account, error) {
	var (
		a        Account
		tenantID uuid.NullUUID
		updated  sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Name, &a.Slug, &tenantID, &a.IsActive, &a.IsChecked, &a.IsArchived,
		&a.IsSubscription, &a.IsManager, &a.IsStaff, &a.Created, &updated)
	if err != nil {
		return nil, err
	}
	if tenantID.Valid {
		a.TenantID = &tenantID.UUID
	}
	if updated.Valid {
		a.Updated = &updated.Time
	}
	a.deriveStatus()
	return &a, nil
}

// GuestPostgresRepository stores invitations across guest_users and guest_user_accounts
type GuestPostgresRepository struct {
	db *sql.DB
}

// NewGuestPostgresRepository creates a new guest repository
func NewGuestPostgresRepository(db *sql.DB) *GuestPostgresRepository {
	return &GuestPostgresRepository{db: db}
}

func (r *GuestPostgresRepository) GetOrCreate(ctx context.Context, guest GuestUser) (storage.CreateResponse[GuestUser], error) {
	var none storage.CreateResponse[GuestUser]

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return none, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// the no-op update makes RETURNING yield the existing row on conflict
	err = tx.QueryRowContext(ctx, `
		INSERT INTO guest_users (id, email, guest_role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (email, guest_role_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, was_verified, created_at`,
		uuid.New(), guest.Email, guest.RoleID,
	).Scan(&guest.ID, &guest.WasVerified, &guest.Created)
	if err != nil {
		return none, fmt.Errorf("failed to register guest user: %w", storage.TranslatePQError(err))
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO guest_user_accounts (guest_user_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		guest.ID, guest.AccountID,
	)
	if err != nil {
		return none, fmt.Errorf("failed to link guest user: %w", storage.TranslatePQError(err))
	}
	linked, err := result.RowsAffected()
	if err != nil {
		return none, fmt.Errorf("failed to link guest user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return none, fmt.Errorf("failed to commit guest invitation: %w", err)
	}
	if linked == 0 {
		return storage.NotCreated(guest, ReasonAlreadyInvited), nil
	}
	return storage.Created(guest), nil
}

func (r *GuestPostgresRepository) Remove(ctx context.Context, guest GuestUser) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM guest_user_accounts gua
		USING guest_users gu
		WHERE gua.guest_user_id = gu.id
			AND lower(gu.email) = lower($1)
			AND gu.guest_role_id = $2
			AND gua.account_id = $3`,
		guest.Email, guest.RoleID, guest.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove guest user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound("guest invitation", guest.Email)
	}
	return nil
}
