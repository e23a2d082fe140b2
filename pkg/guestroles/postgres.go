package guestroles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

// ReasonAlreadyExists is reported when a role name is taken
const ReasonAlreadyExists = "Role already exists"

const roleColumns = `id, name, slug, description, permission, created_at, updated_at`

// PostgresRepository stores guest roles in the guest_roles table
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new guest role repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrCreate inserts role unless its name is taken, in which case the
// stored role is returned as NotCreated
func (r *PostgresRepository) GetOrCreate(ctx context.Context, role GuestRole) (storage.CreateResponse[GuestRole], error) {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO guest_roles (id, name, slug, description, permission)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING
		RETURNING `+roleColumns,
		role.ID, role.Name, role.Slug, role.Description, role.Permission,
	)
	created, err := scanRole(row)
	if err == nil {
		return storage.Created(*created), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.CreateResponse[GuestRole]{}, fmt.Errorf("failed to create guest role: %w", storage.TranslatePQError(err))
	}

	existing, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM guest_roles WHERE name = $1`, role.Name))
	if err != nil {
		return storage.CreateResponse[GuestRole]{}, fmt.Errorf("failed to get existing guest role: %w", err)
	}
	return storage.NotCreated(*existing, ReasonAlreadyExists), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*GuestRole, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM guest_roles WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("guest role", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest role: %w", err)
	}
	return role, nil
}

// List returns roles whose name contains name, case-insensitively
func (r *PostgresRepository) List(ctx context.Context, name string) ([]GuestRole, error) {
	query := `SELECT ` + roleColumns + ` FROM guest_roles`
	var args []interface{}
	if name != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, name)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest roles: %w", err)
	}
	defer rows.Close()

	var out []GuestRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest role: %w", err)
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM guest_roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete guest role: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound("guest role", id.String())
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRole(row scanner) (*GuestRole, error) {
	var (
		role        GuestRole
		description sql.NullString
		updated     sql.NullTime
	)
	if err := row.Scan(&role.ID, &role.Name, &role.Slug, &description, &role.Permission, &role.Created, &updated); err != nil {
		return nil, err
	}
	role.Description = description.String
	if updated.Valid {
		role.Updated = &updated.Time
	}
	return &role, nil
}
