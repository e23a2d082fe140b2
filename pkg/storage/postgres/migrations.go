package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the schema in apply order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tenants and accounts",
			SQL: `
				CREATE TABLE IF NOT EXISTS tenants (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ
				);

				CREATE TABLE IF NOT EXISTS accounts (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					slug VARCHAR(255) NOT NULL,
					tenant_id UUID REFERENCES tenants(id) ON DELETE CASCADE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_checked BOOLEAN NOT NULL DEFAULT FALSE,
					is_archived BOOLEAN NOT NULL DEFAULT FALSE,
					is_default BOOLEAN NOT NULL DEFAULT FALSE,
					is_subscription BOOLEAN NOT NULL DEFAULT FALSE,
					is_manager BOOLEAN NOT NULL DEFAULT FALSE,
					is_staff BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ,
					UNIQUE(tenant_id, slug)
				);

				CREATE INDEX IF NOT EXISTS idx_accounts_tenant_id ON accounts(tenant_id);
			`,
		},
		{
			Version:     2,
			Description: "Create owners and tenant ownerships",
			SQL: `
				CREATE TABLE IF NOT EXISTS owners (
					id UUID PRIMARY KEY,
					account_id UUID REFERENCES accounts(id) ON DELETE SET NULL,
					email VARCHAR(320) NOT NULL UNIQUE,
					first_name VARCHAR(255),
					last_name VARCHAR(255),
					username VARCHAR(255),
					is_principal BOOLEAN NOT NULL DEFAULT TRUE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE
				);

				CREATE TABLE IF NOT EXISTS tenant_owners (
					tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
					owner_id UUID NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
					since TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (tenant_id, owner_id)
				);
			`,
		},
		{
			Version:     3,
			Description: "Create guest roles and guest grants",
			SQL: `
				CREATE TABLE IF NOT EXISTS guest_roles (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					slug VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					permission VARCHAR(32) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ
				);

				CREATE TABLE IF NOT EXISTS guest_users (
					id UUID PRIMARY KEY,
					email VARCHAR(320) NOT NULL,
					guest_role_id UUID NOT NULL REFERENCES guest_roles(id) ON DELETE CASCADE,
					was_verified BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ,
					UNIQUE(email, guest_role_id)
				);

				CREATE TABLE IF NOT EXISTS guest_user_accounts (
					guest_user_id UUID NOT NULL REFERENCES guest_users(id) ON DELETE CASCADE,
					account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (guest_user_id, account_id)
				);

				CREATE OR REPLACE VIEW licensed_resources AS
				SELECT
					gu.email AS email,
					acc.id AS acc_id,
					acc.name AS acc_name,
					acc.tenant_id AS tenant_id,
					acc.is_default AS sys_acc,
					gr.slug AS role,
					gr.permission AS permission,
					gu.was_verified AS verified
				FROM guest_user_accounts gua
				JOIN guest_users gu ON gu.id = gua.guest_user_id
				JOIN guest_roles gr ON gr.id = gu.guest_role_id
				JOIN accounts acc ON acc.id = gua.account_id
				WHERE acc.tenant_id IS NOT NULL;
			`,
		},
		{
			Version:     4,
			Description: "Create webhooks",
			SQL: `
				CREATE TABLE IF NOT EXISTS webhooks (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					url TEXT NOT NULL,
					trigger VARCHAR(64) NOT NULL,
					secret JSONB,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ
				);

				CREATE INDEX IF NOT EXISTS idx_webhooks_trigger_active ON webhooks(trigger) WHERE is_active;
			`,
		},
	}
}

// RunMigrations executes all pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenancy_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		logger.Infof("Running migration %d: %s", migration.Version, migration.Description)
		if err := applyMigration(ctx, db, migration); err != nil {
			return err
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM tenancy_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tenancy_migrations (version, description) VALUES ($1, $2)",
		migration.Version, migration.Description,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}
