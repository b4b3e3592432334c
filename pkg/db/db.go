package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// A single connection avoids SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// PruneCache removes cache entries that expired before now.
// Entries stored without an expiry are kept.
func (d *DB) PruneCache(now time.Time) (int64, error) {
	res, err := d.Exec("DELETE FROM cache WHERE expires_at > 0 AND expires_at <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			country TEXT,
			lat REAL,
			lng REAL
		);`,
		`CREATE TABLE IF NOT EXISTS city_zones (
			id TEXT PRIMARY KEY,
			city_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			position INTEGER DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS places (
			id TEXT PRIMARY KEY,
			city_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			zone_id TEXT,
			address TEXT,
			local_one_liner TEXT,
			duration_min INTEGER DEFAULT 0,
			price_tier INTEGER DEFAULT 0,
			cuisine TEXT,
			indoor_outdoor TEXT,
			crowd_level INTEGER DEFAULT 0,
			local_score INTEGER DEFAULT 0,
			best_times TEXT,
			lat REAL,
			lng REAL,
			position INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_places_city_status ON places (city_id, status);`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			city_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			title TEXT NOT NULL,
			pitch TEXT,
			price INTEGER NOT NULL DEFAULT 0,
			duration_min INTEGER DEFAULT 0,
			type TEXT NOT NULL,
			time_buckets TEXT,
			position INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_city_status ON products (city_id, status);`,
		`CREATE TABLE IF NOT EXISTS persistent_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			value BLOB,
			expires_at INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	return nil
}
