// Package testutil contains helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/database"
)

// NewDB returns an in-memory SQLite database with the schema applied. The
// database is closed when the test finishes.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, config.DriverSQLite); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// InsertUser adds a user row with a placeholder hash and returns its id.
func InsertUser(t *testing.T, db *sql.DB, email string) uint64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO users (email, password_hash) VALUES (?, ?)", email, "x")
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read user id: %v", err)
	}
	return uint64(id)
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()

	q := "SELECT COUNT(1) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
