package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements(t *testing.T) {
	for _, driver := range []string{"mysql", "sqlite3"} {
		stmts, err := schemaStatements(driver)
		require.NoError(t, err, driver)
		assert.GreaterOrEqual(t, len(stmts), 4, driver)
		for _, s := range stmts {
			assert.NotContains(t, s, ";", driver)
		}
	}

	_, err := schemaStatements("postgres")
	assert.Error(t, err)
}

func TestMigrate_SQLiteIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, "sqlite3"))
	require.NoError(t, Migrate(ctx, db, "sqlite3"))

	for _, table := range []string{"users", "refresh_tokens", "watchlists", "movies"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpenSQLite_ForeignKeysEnabled(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}
