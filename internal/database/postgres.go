package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// PostgresConfig holds the connection settings for Postgres
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// NewPostgresDB opens and verifies a Postgres connection pool
func NewPostgresDB(cfg PostgresConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to Postgres")
	return &DB{db}, nil
}

const createJournalTable = `
CREATE TABLE IF NOT EXISTS order_change_journal (
	id         BIGSERIAL PRIMARY KEY,
	order_id   TEXT        NOT NULL,
	changes    JSONB       NOT NULL,
	notified   BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_order_change_journal_order ON order_change_journal (order_id, created_at);`

// Migrate creates the local tables this service owns
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, createJournalTable); err != nil {
		return fmt.Errorf("failed to migrate order_change_journal: %w", err)
	}
	return nil
}
