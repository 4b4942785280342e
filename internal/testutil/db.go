// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/config"
	"github.com/eventgo/eventgo/internal/database"
)

// NewDB returns a migrated SQLite database in a per-test temp dir. It is
// closed automatically when the test ends.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "eventgo.db"),
	}
	conn, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := database.RunMigrations(conn, config.DriverSQLite); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return conn
}

// MustExec runs a statement and fails the test on error. Used to seed rows.
func MustExec(t *testing.T, conn *sqlx.DB, query string, args ...any) int {
	t.Helper()
	res, err := conn.Exec(query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return int(id)
}

// Count returns SELECT COUNT(*) for the given query.
func Count(t *testing.T, conn *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, query, args...); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}
