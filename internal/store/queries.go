package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs statements against either the pool or a transaction.
type Queries struct {
	q DBTX
}

// now is the timestamp written to created_at/updated_at. Millisecond
// precision matches the MySQL DATETIME(3) columns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
