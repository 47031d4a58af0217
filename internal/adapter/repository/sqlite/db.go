package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DB wraps the embedded database connection
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path.
// ":memory:" opens a private in-memory database.
func NewDB(path string) (*DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer; also keeps one shared in-memory database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_prices (
		ticker     TEXT    NOT NULL,
		date       TEXT    NOT NULL,
		close      TEXT    NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS ticker_views (
		ticker     TEXT PRIMARY KEY,
		view_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS daily_visits (
		date          TEXT PRIMARY KEY,
		page_views    INTEGER NOT NULL DEFAULT 0,
		unique_visits INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate creates the tables used by the repositories when missing
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
