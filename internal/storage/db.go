package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// OpenConfig holds connection settings for Open.
type OpenConfig struct {
	Driver          string // sqlite or postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the configured database and bootstraps the schema.
func Open(ctx context.Context, cfg OpenConfig) (*sql.DB, error) {
	driverName := cfg.Driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

// Migrate creates the schema when it does not exist yet. All statements are
// idempotent; the same DDL works on both SQLite and Postgres.
func Migrate(ctx context.Context, db DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			unit TEXT NOT NULL,
			rate REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quotations (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			client_address TEXT NOT NULL DEFAULT '',
			quotation_date TIMESTAMP NOT NULL,
			quotation_type TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			subtotal REAL NOT NULL DEFAULT 0,
			discount REAL NOT NULL DEFAULT 0,
			gst REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quotation_items (
			id TEXT PRIMARY KEY,
			quotation_id TEXT NOT NULL REFERENCES quotations(id),
			product_id TEXT,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			quantity REAL NOT NULL DEFAULT 0,
			rate REAL NOT NULL DEFAULT 0,
			amount REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotation_items_quotation
			ON quotation_items(quotation_id, position)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}
