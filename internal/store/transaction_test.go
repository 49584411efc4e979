package store_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskshare-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTxTestDB connects to the database named by DATABASE_URL and creates a
// session-scoped scratch table. Tests are skipped when no database is
// configured.
func openTxTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// A single connection keeps the temp table visible to queries made
	// outside the transaction.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))

	_, err = db.ExecContext(ctx, `CREATE TEMP TABLE tx_smoke (id INT PRIMARY KEY)`)
	require.NoError(t, err)

	return db
}

func countSmokeRows(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM tx_smoke`).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRunInTransactionCommits(t *testing.T) {
	db := openTxTestDB(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tx_smoke (id) VALUES (1)`)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countSmokeRows(t, db))
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	db := openTxTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("insert rejected")
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tx_smoke (id) VALUES (1)`); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	assert.Equal(t, 0, countSmokeRows(t, db))
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	db := openTxTestDB(t)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO tx_smoke (id) VALUES (1)`); err != nil {
				return err
			}
			panic("mid-transaction failure")
		})
	})

	assert.Equal(t, 0, countSmokeRows(t, db))
}

func TestNewTxRunnerBindsDatabase(t *testing.T) {
	db := openTxTestDB(t)
	runner := store.NewTxRunner(db)

	err := runner(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tx_smoke (id) VALUES (2)`)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countSmokeRows(t, db))
}
