package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// Migrate applies the embedded schema for driver. Every statement is
// idempotent so it is safe to run on each startup.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := schemaStatements(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", driver, err)
		}
	}
	return nil
}

// schemaStatements splits the driver's schema file into single statements;
// the MySQL driver rejects multi-statement Exec calls by default.
func schemaStatements(driver string) ([]string, error) {
	raw, err := schemaFiles.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no schema for driver %q: %w", driver, err)
	}
	var out []string
	for _, part := range strings.Split(string(raw), ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
