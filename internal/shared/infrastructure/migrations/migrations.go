// Package migrations applies the embedded schema for the configured driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

const upSuffix = ".up.sql"

// Run executes every .up.sql migration for the connection's driver in
// lexical order. Migrations use IF NOT EXISTS and are safe to re-run.
func Run(ctx context.Context, conn database.Connection) error {
	dir := string(conn.Driver())

	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		migration, err := migrationsFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := conn.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}

// Latest returns the name of the newest migration for driver without its
// suffix, e.g. "000003_journal".
func Latest(driver database.Driver) (string, error) {
	files, err := upFiles(string(driver))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no migrations for %s", driver)
	}
	return strings.TrimSuffix(files[len(files)-1], upSuffix), nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), upSuffix) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
