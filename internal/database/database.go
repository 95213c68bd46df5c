package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Schema is the DDL for the attachment index and its preview sidecar table.
// It is idempotent; there is no versioned migration history.
const Schema = `
CREATE TABLE IF NOT EXISTS file_objects (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	bucket TEXT NOT NULL,
	path TEXT NOT NULL,
	title TEXT,
	file_type TEXT,
	file_size BIGINT,
	related_entity_type TEXT NOT NULL,
	related_entity_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (bucket, path)
);
CREATE INDEX IF NOT EXISTS idx_file_objects_owner
	ON file_objects(bucket, related_entity_type, related_entity_id, created_at DESC);
CREATE TABLE IF NOT EXISTS attachment_previews (
	attachment_id UUID PRIMARY KEY REFERENCES file_objects(id),
	status TEXT NOT NULL,
	content TEXT,
	error_message TEXT,
	updated_at TIMESTAMPTZ NOT NULL
);`

// EnsureSchema creates the tables if needed so a fresh database works out of
// the box.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
