package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoTransaction is returned by Commit and Rollback when the context
// carries no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

// UnitOfWork groups repository calls into a single transaction. Command
// handlers use it so a state change and its outbox events commit together.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type txKey struct{}

// scope is the transaction carried on a context. Only the unit of work
// that began it may finish it.
type scope struct {
	tx    Transaction
	owner *TxUnitOfWork
}

func scopeFrom(ctx context.Context) (scope, bool) {
	s, ok := ctx.Value(txKey{}).(scope)
	return s, ok && s.tx != nil
}

// ExecutorFromContext returns the transaction carried by ctx, or conn when
// there is none. Repositories call it to join a surrounding unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if s, ok := scopeFrom(ctx); ok {
		return s.tx
	}
	return conn
}

// TxUnitOfWork begins transactions on a Connection.
type TxUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *TxUnitOfWork {
	return &TxUnitOfWork{conn: conn}
}

// Begin starts a transaction and stores it in the context. When ctx
// already carries one, it is joined and left to its owner to finish.
func (u *TxUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if s, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, scope{tx: s.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey{}, scope{tx: tx, owner: u}), nil
}

// Commit commits the transaction if u began it.
func (u *TxUnitOfWork) Commit(ctx context.Context) error {
	s, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if s.owner != u {
		return nil
	}
	return s.tx.Commit(ctx)
}

// Rollback rolls back the transaction if u began it.
func (u *TxUnitOfWork) Rollback(ctx context.Context) error {
	s, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if s.owner != u {
		return nil
	}
	return s.tx.Rollback(ctx)
}

// WithUnitOfWork runs fn inside a transaction, committing on success and
// rolling back when fn returns an error or panics.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback(txCtx)
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return uow.Commit(txCtx)
}
