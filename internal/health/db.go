package health

import (
	"context"
	"database/sql"
)

// DBChecker probes the listings database. The feed cannot serve anything
// without Postgres, so readiness follows this check.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database over the pool's live connection.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
