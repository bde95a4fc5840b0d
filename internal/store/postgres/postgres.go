package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func (db *DB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS endpoint_configs (
			id             TEXT PRIMARY KEY,
			project_id     TEXT NOT NULL,
			webhook_url    TEXT NOT NULL,
			channel_label  TEXT,
			team_label     TEXT,
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			enabled_events JSONB,
			created_at     TIMESTAMPTZ DEFAULT NOW(),
			updated_at     TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_endpoint_configs_active_project
			ON endpoint_configs(project_id) WHERE is_active;

		CREATE TABLE IF NOT EXISTS notification_records (
			id            TEXT PRIMARY KEY,
			project_id    TEXT NOT NULL,
			entity_id     TEXT,
			actor_id      TEXT,
			event_type    TEXT NOT NULL,
			status        TEXT NOT NULL CHECK (status IN ('pending', 'sent', 'failed')),
			remote_run_id TEXT,
			error_detail  TEXT,
			payload       JSONB,
			created_at    TIMESTAMPTZ DEFAULT NOW(),
			updated_at    TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_notification_records_project_id ON notification_records(project_id);
		CREATE INDEX IF NOT EXISTS idx_notification_records_status ON notification_records(status);
		CREATE INDEX IF NOT EXISTS idx_notification_records_created_at ON notification_records(created_at);
	`

	_, err := db.Pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
