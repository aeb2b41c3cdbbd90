package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/growen-ao/growen-api/migrations"
)

// Migrate applies the embedded migrations for driver
func Migrate(ctx context.Context, db *sql.DB, driver string) ([]string, error) {
	files, err := migrations.ForDriver(driver)
	if err != nil {
		return nil, err
	}
	return RunMigrations(ctx, db, files)
}

// MigrationStatus reports whether one migration file has been applied
type MigrationStatus struct {
	Name    string
	Applied bool
}

// Status lists the embedded migrations for driver in apply order
func Status(ctx context.Context, db *sql.DB, driver string) ([]MigrationStatus, error) {
	files, err := migrations.ForDriver(driver)
	if err != nil {
		return nil, err
	}
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	names, err := migrationFiles(files)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(names))
	for _, name := range names {
		out = append(out, MigrationStatus{Name: name, Applied: applied[name]})
	}
	return out, nil
}

// RunMigrations runs all pending database migrations from the provided
// filesystem and returns the names of the files it applied. Each file runs
// in its own transaction together with its schema_migrations row.
func RunMigrations(ctx context.Context, db *sql.DB, migrationsFS fs.FS) ([]string, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	names, err := migrationFiles(migrationsFS)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := applyMigration(ctx, db, migrationsFS, name); err != nil {
			return done, err
		}
		done = append(done, name)
	}
	return done, nil
}

func applyMigration(ctx context.Context, db *sql.DB, fsys fs.FS, name string) error {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

// migrationFiles returns the .sql files of fsys sorted by name
func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
