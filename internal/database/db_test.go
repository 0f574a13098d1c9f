package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "journal.db"),
		Name: "journal-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	for _, table := range []string{"accounts", "trades", "trade_feelings", "account_trades"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(
		"INSERT INTO account_trades (account_id, trade_id) VALUES ('ghost', 'ghost')")
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	assert.NoError(t, db.QuickCheck(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
}

func TestWithTransactionCommits(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO accounts (id, name, balance, active, created_at, updated_at)
			VALUES ('a1', 'Demo', '0', 1, 0, 0)
		`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO accounts (id, name, balance, active, created_at, updated_at)
			VALUES ('a1', 'Demo', '0', 1, 0, 0)
		`); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTransactionRecoversPanic(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("boom")
	})
	assert.Error(t, err)
}
