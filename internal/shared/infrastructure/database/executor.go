package database

import (
	"context"
	"database/sql"
)

// Row is satisfied by pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is satisfied by pgx.Rows (through an adapter) and *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports how many cycles, rules or entries a statement touched.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs queries on a connection or, inside a unit of work, on its
// transaction. Repositories obtain one through ExecutorFromContext.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that must be committed or rolled back.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open SQLite or PostgreSQL database.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// CollectRows scans every row with scan and closes rows. The result is
// never nil, so an empty history encodes as [] rather than null.
func CollectRows[T any](rows Rows, scan func(Row) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type sqlRows struct {
	*sql.Rows
}

// WrapSQLRows adapts *sql.Rows to Rows.
func WrapSQLRows(r *sql.Rows) Rows {
	return sqlRows{Rows: r}
}
