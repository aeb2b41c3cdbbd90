package postgres

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateAndStatus(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	ctx := context.Background()

	before, err := Status(ctx, db, "sqlite")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(before) == 0 {
		t.Fatal("no embedded migrations")
	}
	for _, m := range before {
		if m.Applied {
			t.Errorf("%s applied on a fresh database", m.Name)
		}
	}

	applied, err := Migrate(ctx, db, "sqlite")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(applied) != len(before) || applied[0] != before[0].Name {
		t.Errorf("applied = %v, want every file of %v", applied, before)
	}

	after, err := Status(ctx, db, "sqlite")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	for _, m := range after {
		if !m.Applied {
			t.Errorf("%s still pending", m.Name)
		}
	}

	again, err := Migrate(ctx, db, "sqlite")
	if err != nil || len(again) != 0 {
		t.Errorf("second Migrate() = %v, %v; want nothing applied", again, err)
	}

	if _, err := db.ExecContext(ctx, "SELECT count(*) FROM email_jobs"); err != nil {
		t.Errorf("email_jobs table missing: %v", err)
	}
}

func TestStatus_UnknownDriver(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := Status(context.Background(), db, "mysql"); err == nil {
		t.Error("Status() accepted an unknown driver")
	}
}
