package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the SQLite database and runs migrations.
func Init(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	// Single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	d := &DB{db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// Timestamps are stored as unix milliseconds; images as a JSON array.
func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS restaurant_cache (
			user_id TEXT NOT NULL,
			query_hash TEXT NOT NULL,
			response BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, query_hash)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_restaurant_cache_expires_at ON restaurant_cache (expires_at);`,
		`CREATE TABLE IF NOT EXISTS restaurant_preferences (
			user_id TEXT NOT NULL,
			restaurant_id TEXT NOT NULL,
			preference TEXT NOT NULL CHECK (preference IN ('like', 'dislike')),
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, restaurant_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_restaurant_preferences_restaurant ON restaurant_preferences (restaurant_id, preference);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			full_name TEXT,
			avatar_url TEXT,
			bio TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			images TEXT NOT NULL,
			caption TEXT NOT NULL,
			location TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS user_followers (
			id TEXT PRIMARY KEY,
			follower_id TEXT NOT NULL,
			following_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (follower_id, following_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_user_followers_following ON user_followers (following_id);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}
	return nil
}
