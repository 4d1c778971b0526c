// Package dbtest provides migrated in-memory SQLite databases for tests that
// need real transactions.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/iliyamo/ecocharge-reservation/internal/config"
	"github.com/iliyamo/ecocharge-reservation/internal/database"
)

// New returns a fresh, migrated in-memory database that is closed when the
// test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, config.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
