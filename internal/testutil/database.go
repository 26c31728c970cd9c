package testutil

import (
	"database/sql"
	"testing"

	"github.com/phikva/helseapp-sub000/internal/database"
)

// NewTestDatabase opens a migrated in-memory sqlite store scoped to the
// test's lifetime.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
