package database

import (
	"fmt"
	"strings"
)

// Driver names a storage backend. Its value is also the migrations
// directory for that backend.
type Driver string

const (
	// DriverPostgres stores cycles, rules and journal entries in PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite is the single-user default backed by a local file.
	DriverSQLite Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// ResolveDriver picks the backend for DATABASE_URL. An empty URL means the
// local SQLite file, so the CLI and worker run with no configuration.
func ResolveDriver(url string) (Driver, error) {
	switch {
	case url == "":
		return DriverSQLite, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"), url == ":memory:":
		return DriverSQLite, nil
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(url, ext) {
			return DriverSQLite, nil
		}
	}
	scheme, _, found := strings.Cut(url, "://")
	if !found {
		scheme = url
	}
	return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", scheme)
}

// SQLitePathFromURL strips the sqlite:// scheme from a DATABASE_URL.
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}
