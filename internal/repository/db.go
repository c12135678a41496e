package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT 'user',
			status     TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS tools (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			slug              TEXT NOT NULL UNIQUE,
			url               TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			price_shared      BIGINT NOT NULL DEFAULT 0,
			price_private     BIGINT NOT NULL DEFAULT 0,
			cookie_blob       TEXT NOT NULL DEFAULT '',
			cookie_expiry     TIMESTAMPTZ,
			cookie_updated_at TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS credential_pools (
			id             TEXT PRIMARY KEY,
			tool_id        TEXT NOT NULL REFERENCES tools(id),
			login_email    TEXT NOT NULL DEFAULT '',
			login_password TEXT NOT NULL DEFAULT '',
			current_users  INT NOT NULL DEFAULT 0,
			max_users      INT NOT NULL DEFAULT 5,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT pool_capacity CHECK (current_users <= max_users)
		);
		CREATE INDEX IF NOT EXISTS idx_pools_tool_id ON credential_pools(tool_id);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL REFERENCES users(id),
			tool_id              TEXT NOT NULL REFERENCES tools(id),
			plan_type            TEXT NOT NULL,
			status               TEXT NOT NULL DEFAULT 'ACTIVE',
			activation_status    TEXT NOT NULL DEFAULT 'PENDING',
			pool_id              TEXT,
			credentials          TEXT,
			order_id             TEXT NOT NULL DEFAULT '',
			current_period_start TIMESTAMPTZ NOT NULL,
			current_period_end   TIMESTAMPTZ NOT NULL,
			suspended_at         TIMESTAMPTZ,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_user_tool ON subscriptions(user_id, tool_id);

		CREATE TABLE IF NOT EXISTS admin_logs (
			id          TEXT PRIMARY KEY,
			admin_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_admin_logs_created ON admin_logs(created_at);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
