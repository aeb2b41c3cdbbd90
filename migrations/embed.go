package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS

// ForDriver returns the migration files for the given database driver
func ForDriver(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return fs.Sub(Files, "sqlite")
	case "postgres":
		return fs.Sub(Files, "postgres")
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
