package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver, used by tests
)

// Config holds database connection configuration.
type Config struct {
	// Driver is "postgres" in production; tests use "sqlite3".
	Driver   string
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// Open connects to the database, configures the connection pool and
// verifies the connection with a ping.
func Open(config Config) (*sql.DB, error) {
	if config.Driver == "" {
		config.Driver = "postgres"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	db, err := sql.Open(config.Driver, config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConns)
	db.SetMaxIdleConns(config.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id               BIGSERIAL PRIMARY KEY,
	name             TEXT NOT NULL,
	email            TEXT NOT NULL UNIQUE,
	password_hash    TEXT NOT NULL,
	image_url        TEXT NOT NULL DEFAULT '',
	bio              TEXT NOT NULL DEFAULT '',
	phone            BIGINT NOT NULL DEFAULT 0,
	is_admin         BOOLEAN NOT NULL DEFAULT FALSE,
	is_public        BOOLEAN NOT NULL DEFAULT FALSE,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	is_expired       BOOLEAN NOT NULL DEFAULT FALSE,
	federated        BOOLEAN NOT NULL DEFAULT FALSE,
	current_token    TEXT NOT NULL DEFAULT '',
	token_expires_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS books (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	author     TEXT NOT NULL,
	year       BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (title, author, year)
);

CREATE INDEX IF NOT EXISTS idx_books_author ON books (author);
CREATE INDEX IF NOT EXISTS idx_books_year ON books (year);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	name             TEXT NOT NULL,
	email            TEXT NOT NULL UNIQUE,
	password_hash    TEXT NOT NULL,
	image_url        TEXT NOT NULL DEFAULT '',
	bio              TEXT NOT NULL DEFAULT '',
	phone            INTEGER NOT NULL DEFAULT 0,
	is_admin         BOOLEAN NOT NULL DEFAULT FALSE,
	is_public        BOOLEAN NOT NULL DEFAULT FALSE,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	is_expired       BOOLEAN NOT NULL DEFAULT FALSE,
	federated        BOOLEAN NOT NULL DEFAULT FALSE,
	current_token    TEXT NOT NULL DEFAULT '',
	token_expires_at TIMESTAMP,
	created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	author     TEXT NOT NULL,
	year       INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (title, author, year)
);

CREATE INDEX IF NOT EXISTS idx_books_author ON books (author);
CREATE INDEX IF NOT EXISTS idx_books_year ON books (year);
`

// Migrate creates the schema if it does not already exist. The DDL is
// selected by driver since PostgreSQL and SQLite disagree on serial
// column syntax.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema := schemaPostgres
	if driver == "sqlite3" {
		schema = schemaSQLite
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
