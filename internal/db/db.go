// Package db provides database utilities and connection handling for StudX.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// DefaultMaxOpenConns caps concurrent connections per process.
	DefaultMaxOpenConns = 25

	// DefaultMaxIdleConns keeps a small warm pool for fan-out fetches.
	DefaultMaxIdleConns = 5

	// DefaultConnMaxLifetime recycles connections so pooled ones do not
	// outlive server-side idle timeouts.
	DefaultConnMaxLifetime = 30 * time.Minute
)

// Open connects to PostgreSQL, applies pool defaults, and verifies the
// connection with a ping before returning it.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(DefaultMaxOpenConns)
	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return conn, nil
}
