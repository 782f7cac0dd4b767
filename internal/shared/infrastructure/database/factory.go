package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config holds database configuration.
type Config struct {
	// Driver forces a backend. Empty resolves it from URL.
	Driver Driver

	// URL is the connection string for PostgreSQL.
	URL string

	// SQLitePath is the path to the SQLite database file. ":memory:" opens a
	// private in-memory database. Defaults to ~/.cyclist/data.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool. Zero keeps the driver default.
	MaxConns int
}

// Opener opens a connection for one backend.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register installs the opener for driver. Backend packages call it from
// init, so importing one for side effects is what makes it available.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens a connection to the backend cfg resolves to.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		var err error
		if driver, err = ResolveDriver(cfg.URL); err != nil {
			return nil, err
		}
	}
	if driver == DriverSQLite && cfg.SQLitePath == "" && cfg.URL != "" {
		cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		if driver != DriverPostgres && driver != DriverSQLite {
			return nil, fmt.Errorf("unsupported database driver: %s", driver)
		}
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cyclist", "data.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
