package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=dcaflow sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
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
		ticker     VARCHAR(16)    NOT NULL,
		date       DATE           NOT NULL,
		close      NUMERIC(20, 6) NOT NULL CHECK (close > 0),
		updated_at TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_prices_updated ON stock_prices (ticker, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS ticker_views (
		ticker     VARCHAR(16) PRIMARY KEY,
		view_count BIGINT      NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS daily_visits (
		date          DATE PRIMARY KEY,
		page_views    BIGINT NOT NULL DEFAULT 0,
		unique_visits BIGINT NOT NULL DEFAULT 0
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
