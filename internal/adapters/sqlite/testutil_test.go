// Package sqlite_test contains integration tests for SQLite repositories.
//
// Tests run against the embedded goose migrations so the schema under test is
// always the one shipped with the binary.
package sqlite_test

import (
	"database/sql"
	"testing"

	"github.com/example/goapgit/internal/db"
)

// setupTestDB creates an in-memory database migrated to the latest schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}
