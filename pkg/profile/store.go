package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Store reads the grants a Profile is built from
type Store struct {
	db *sql.DB
}

// NewStore creates a new profile store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FetchProfile assembles the profile of the owner registered under email
func (s *Store) FetchProfile(ctx context.Context, email string) (*Profile, error) {
	query := `
		SELECT o.id, o.email, o.first_name, o.last_name, o.username, o.is_principal, o.is_active,
			a.id, a.is_active, a.is_checked, a.is_archived, a.is_subscription, a.is_manager, a.is_staff
		FROM owners o
		JOIN accounts a ON a.id = o.account_id
		WHERE lower(o.email) = lower($1)
	`

	var (
		p                     Profile
		owner                 Owner
		first, last, username sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&owner.ID,
		&owner.Email,
		&first,
		&last,
		&username,
		&owner.IsPrincipal,
		&p.OwnerIsActive,
		&p.AccID,
		&p.AccountIsActive,
		&p.AccountWasApproved,
		&p.AccountWasArchived,
		&p.IsSubscription,
		&p.IsManager,
		&p.IsStaff,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("profile", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile owner: %w", err)
	}

	owner.FirstName = first.String
	owner.LastName = last.String
	owner.Username = username.String
	p.Email = owner.Email
	p.Owners = []Owner{owner}
	p.VerboseStatus = DeriveVerboseStatus(p.AccountIsActive, p.AccountWasApproved, p.AccountWasArchived)

	if p.Tenants, err = s.tenantOwnerships(ctx, owner.ID); err != nil {
		return nil, err
	}
	if p.LicensedResources, err = s.ListLicensedResources(ctx, owner.Email, LicensedResourceFilter{}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) tenantOwnerships(ctx context.Context, ownerID uuid.UUID) ([]TenantOwnership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tenant_id, since FROM tenant_owners WHERE owner_id = $1 ORDER BY since`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant ownerships: %w", err)
	}
	defer rows.Close()

	var out []TenantOwnership
	for rows.Next() {
		var t TenantOwnership
		if err := rows.Scan(&t.TenantID, &t.Since); err != nil {
			return nil, fmt.Errorf("failed to scan tenant ownership: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LicensedResourceFilter narrows a grant listing. Zero fields do not filter.
type LicensedResourceFilter struct {
	TenantID *uuid.UUID
	// Roles restricts to grants whose role slug is listed
	Roles []string
	// MinLevel keeps grants at or above this level
	MinLevel permissions.Level
	// Related restricts to accounts the caller may see; the zero value does not filter
	Related     *RelatedAccounts
	WasVerified *bool
}

// ListLicensedResources lists the grants held by email
func (s *Store) ListLicensedResources(ctx context.Context, email string, filter LicensedResourceFilter) ([]LicensedResource, error) {
	conditions := []string{"lower(email) = lower($1)"}
	args := []interface{}{email}
	bind := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.TenantID != nil {
		bind("tenant_id = $%d", *filter.TenantID)
	}
	if len(filter.Roles) > 0 {
		bind("role = ANY($%d)", pq.Array(filter.Roles))
	}
	if filter.MinLevel.Valid() {
		bind("permission = ANY($%d)", pq.Array(levelsAtLeast(filter.MinLevel)))
	}
	if filter.Related != nil && !filter.Related.IsAll() {
		bind("acc_id = ANY($%d)", pq.Array(uuidStrings(filter.Related.IDs())))
	}
	if filter.WasVerified != nil {
		bind("verified = $%d", *filter.WasVerified)
	}

	query := `
		SELECT acc_id, acc_name, tenant_id, role, permission, verified, sys_acc
		FROM licensed_resources
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY tenant_id, acc_name, role`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list licensed resources: %w", err)
	}
	defer rows.Close()

	var out []LicensedResource
	for rows.Next() {
		var r LicensedResource
		if err := rows.Scan(&r.AccID, &r.AccName, &r.TenantID, &r.Role, &r.Permission, &r.Verified, &r.SysAcc); err != nil {
			return nil, fmt.Errorf("failed to scan licensed resource: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func levelsAtLeast(min permissions.Level) []string {
	var out []string
	for _, l := range permissions.AllLevels() {
		if l.Satisfies(min) {
			out = append(out, l.String())
		}
	}
	return out
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
