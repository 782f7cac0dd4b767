// Package sqlite backs the stores with a local file, the default for a
// single user running the CLI and worker on one machine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/security"
)

func init() {
	database.Register(database.DriverSQLite, NewConnection)
}

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragmas: WAL lets the worker read while the CLI writes, and busy_timeout
// waits on the write lock instead of failing a reminder tick.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// querier is the query surface shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type executor struct {
	q querier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	return e.q.ExecContext(ctx, query, args...)
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRowContext(ctx, query, args...)
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLRows(rows), nil
}

// Connection is a database.Connection over one SQLite file.
type Connection struct {
	executor
	db *sql.DB
}

// NewConnection opens cfg.SQLitePath, creating its directory, or the
// default path under the home directory when unset.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}

	if path != MemoryPath {
		validated, err := security.ValidateDatabasePath(path)
		if err != nil {
			return nil, err
		}
		path = validated
		if err := database.EnsureDirectory(strings.TrimPrefix(path, "file:")); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite has a single writer, and an in-memory database lives only as
	// long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &Connection{executor: executor{db}, db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range pragmas {
		b.WriteString(sep + "_pragma=" + p)
		sep = "&"
	}
	return b.String()
}

func (c *Connection) Driver() database.Driver {
	return database.DriverSQLite
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// BeginTx starts the transaction a unit of work runs in.
func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Transaction{executor: executor{tx}, tx: tx}, nil
}

// Transaction is a database.Transaction over *sql.Tx.
type Transaction struct {
	executor
	tx *sql.Tx
}

func (t *Transaction) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *Transaction) Rollback(context.Context) error {
	return t.tx.Rollback()
}
