package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

const tenantColumns = `t.id, t.name, t.description, t.created_at, t.updated_at`

// PostgresRepository stores tenants
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new tenant repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpdateNameAndDescription changes the non-nil fields
func (r *PostgresRepository) UpdateNameAndDescription(ctx context.Context, id uuid.UUID, name, description *string) (*Tenant, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE tenants t SET
			name = COALESCE($1, t.name),
			description = COALESCE($2, t.description),
			updated_at = NOW()
		WHERE t.id = $3
		RETURNING `+tenantColumns,
		nullString(name), nullString(description), id,
	)
	tenant, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("tenant", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", storage.TranslatePQError(err))
	}
	return tenant, nil
}

// List returns one page of tenants ordered by name
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (storage.Page[Tenant], error) {
	filter.normalize()

	var (
		conditions []string
		args       []interface{}
	)
	bind := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Name != "" {
		bind("t.name ILIKE '%%' || $%d || '%%'", filter.Name)
	}
	if filter.Owner != nil {
		bind("EXISTS (SELECT 1 FROM tenant_owners o WHERE o.tenant_id = t.id AND o.owner_id = $%d)", *filter.Owner)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := storage.Page[Tenant]{Skip: filter.Skip, Size: filter.PageSize}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants t`+where, args...).Scan(&page.Count); err != nil {
		return page, fmt.Errorf("failed to count tenants: %w", err)
	}

	n := len(args)
	query := `SELECT ` + tenantColumns + ` FROM tenants t` + where +
		fmt.Sprintf(` ORDER BY t.name LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.PageSize, filter.Skip)...)
	if err != nil {
		return page, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	page.Records = []Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return page, fmt.Errorf("failed to scan tenant: %w", err)
		}
		page.Records = append(page.Records, *tenant)
	}
	return page, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row scanner) (*Tenant, error) {
	var (
		t           Tenant
		description sql.NullString
		updated     sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &t.Created, &updated); err != nil {
		return nil, err
	}
	t.Description = description.String
	if updated.Valid {
		t.Updated = &updated.Time
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
