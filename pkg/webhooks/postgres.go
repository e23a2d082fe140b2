package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

const hookColumns = `id, name, description, url, trigger, secret, is_active, created_at, updated_at`

// PostgresRepository stores webhooks in the webhooks table; secrets live in a JSONB column
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByTrigger returns active hooks subscribed to trigger
func (r *PostgresRepository) ListByTrigger(ctx context.Context, trigger Trigger) ([]WebHook, error) {
	query := `SELECT ` + hookColumns + ` FROM webhooks WHERE trigger = $1 AND is_active ORDER BY name`
	return r.query(ctx, query, trigger)
}

// Get retrieves a hook by id
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*WebHook, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+hookColumns+` FROM webhooks WHERE id = $1`, id)
	hook, err := scanHook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("webhook", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	return hook, nil
}

// List returns hooks matching filter; Name matches case-insensitively as a substring
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]WebHook, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Name != "" {
		args = append(args, filter.Name)
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Trigger != "" {
		args = append(args, filter.Trigger)
		conditions = append(conditions, fmt.Sprintf("trigger = $%d", len(args)))
	}

	query := `SELECT ` + hookColumns + ` FROM webhooks`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY name`
	return r.query(ctx, query, args...)
}

// Create inserts hook, filling its id and creation time
func (r *PostgresRepository) Create(ctx context.Context, hook *WebHook) error {
	if hook.ID == uuid.Nil {
		hook.ID = uuid.New()
	}
	if hook.Created.IsZero() {
		hook.Created = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, name, description, url, trigger, secret, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, hook.ID, hook.Name, hook.Description, hook.URL, hook.Trigger, hook.Secret, hook.IsActive, hook.Created)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", storage.TranslatePQError(err))
	}
	return nil
}

// Update overwrites every mutable column of hook
func (r *PostgresRepository) Update(ctx context.Context, hook *WebHook) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE webhooks
		SET name = $2, description = $3, url = $4, trigger = $5, secret = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`, hook.ID, hook.Name, hook.Description, hook.URL, hook.Trigger, hook.Secret, hook.IsActive, now)
	if err != nil {
		return fmt.Errorf("failed to update webhook: %w", storage.TranslatePQError(err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound("webhook", hook.ID.String())
	}
	hook.Updated = &now
	return nil
}

// Delete removes a hook
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound("webhook", id.String())
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...interface{}) ([]WebHook, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []WebHook
	for rows.Next() {
		hook, err := scanHook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		hooks = append(hooks, *hook)
	}
	return hooks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHook(row rowScanner) (*WebHook, error) {
	var (
		hook        WebHook
		description sql.NullString
		secret      []byte
		updated     sql.NullTime
	)
	err := row.Scan(
		&hook.ID,
		&hook.Name,
		&description,
		&hook.URL,
		&hook.Trigger,
		&secret,
		&hook.IsActive,
		&hook.Created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	hook.Description = description.String
	if len(secret) > 0 {
		hook.Secret = &Secret{}
		if err := json.Unmarshal(secret, hook.Secret); err != nil {
			return nil, fmt.Errorf("failed to decode secret of webhook %s: %w", hook.ID, err)
		}
	}
	if updated.Valid {
		hook.Updated = &updated.Time
	}
	return &hook, nil
}
