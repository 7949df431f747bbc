package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenPostgres connects a pool to dsn and runs the Postgres migrations.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := migratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return pool, nil
}

// PostgresSchema is applied in order; every statement is idempotent.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS restaurant_cache (
		user_id TEXT NOT NULL,
		query_hash TEXT NOT NULL,
		response JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, query_hash)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_restaurant_cache_expires_at ON restaurant_cache (expires_at);`,
	`CREATE TABLE IF NOT EXISTS restaurant_preferences (
		user_id TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		preference TEXT NOT NULL CHECK (preference IN ('like', 'dislike')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, restaurant_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_restaurant_preferences_restaurant ON restaurant_preferences (restaurant_id, preference);`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT,
		avatar_url TEXT,
		bio TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		images TEXT[] NOT NULL,
		caption TEXT NOT NULL,
		location TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS user_followers (
		id UUID PRIMARY KEY,
		follower_id TEXT NOT NULL,
		following_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (follower_id, following_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_user_followers_following ON user_followers (following_id);`,
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for _, q := range PostgresSchema {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}
	return nil
}
