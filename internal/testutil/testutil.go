package testutil

import (
	"database/sql"
	"io/fs"
	"sort"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/growen-ao/growen-api/migrations"
)

// NewTestDB creates an in-memory SQLite database with the embedded schema
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	files, err := migrations.ForDriver("sqlite")
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}

	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		t.Fatalf("Failed to read migrations: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(files, name)
		if err != nil {
			t.Fatalf("Failed to read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("Failed to apply migration %s: %v", name, err)
		}
	}

	return db
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}
