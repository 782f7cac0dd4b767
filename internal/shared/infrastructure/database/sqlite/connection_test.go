package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
)

func TestNewConnection_File(t *testing.T) {
	ctx := context.Background()

	cfg := database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "cyclist.db"),
	}

	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping(ctx))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQueryWithRebind(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE contacts (id TEXT PRIMARY KEY, email TEXT)`)
	require.NoError(t, err)

	result, err := conn.Exec(ctx,
		database.Rebind(conn.Driver(), `INSERT INTO contacts (id, email) VALUES ($1, $2)`),
		"u1", "ada@example.com")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var email string
	err = conn.QueryRow(ctx,
		database.Rebind(conn.Driver(), `SELECT email FROM contacts WHERE id = $1`), "u1").Scan(&email)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	err = conn.QueryRow(ctx,
		database.Rebind(conn.Driver(), `SELECT email FROM contacts WHERE id = $1`), "missing").Scan(&email)
	assert.True(t, database.IsNoRows(err))
}

func TestUnitOfWork_RollbackAndCommit(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE rules (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)

	failing := database.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		exec := database.ExecutorFromContext(txCtx, conn)
		if _, err := exec.Exec(txCtx, `INSERT INTO rules (id) VALUES ('a')`); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, failing, assert.AnError)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM rules`).Scan(&count))
	assert.Equal(t, 0, count)

	err = database.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		exec := database.ExecutorFromContext(txCtx, conn)
		_, err := exec.Exec(txCtx, `INSERT INTO rules (id) VALUES ('b')`)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM rules`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow := database.NewUnitOfWork(nil)
	assert.ErrorIs(t, uow.Commit(context.Background()), database.ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), database.ErrNoTransaction)
}

func TestNewConnection_RejectsUnsafePath(t *testing.T) {
	_, err := NewConnection(context.Background(), database.Config{SQLitePath: "/tmp/cyclist;rm.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database path")
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"/data/cyclist.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		dsn("/data/cyclist.db"))
	assert.Contains(t, dsn("/data/cyclist.db?mode=rwc"), "?mode=rwc&_pragma=journal_mode(WAL)")
}

func TestConnection_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE users (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `CREATE TABLE cycles (id TEXT PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id))`)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `INSERT INTO cycles (id, user_id) VALUES ('c1', 'nobody')`)
	assert.Error(t, err)
}

func TestUnitOfWork_NestedJoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE journal_entries (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)
	err = database.WithUnitOfWork(ctx, uow, func(outer context.Context) error {
		inner := database.WithUnitOfWork(outer, uow, func(txCtx context.Context) error {
			_, err := database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO journal_entries (id) VALUES ('e1')`)
			return err
		})
		require.NoError(t, inner)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries`).Scan(&count))
	assert.Zero(t, count, "inner commit must not finish the outer transaction")
}

func TestUnitOfWork_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()

	conn, err := NewConnection(ctx, database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE cycles (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)
	assert.Panics(t, func() {
		_ = database.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
			_, err := database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO cycles (id) VALUES ('c1')`)
			require.NoError(t, err)
			panic("boom")
		})
	})

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&count))
	assert.Zero(t, count)
}
