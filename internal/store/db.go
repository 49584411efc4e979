package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database handle the Postgres stores run queries
// against. Both *sql.DB and *sql.Tx satisfy it, so a store built on a plain
// connection and one returned by WithTx share the same query code.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
