// Package pgxutil holds transaction helpers shared by the SQL repositories and the queue executor.
// The helpers only use statements that PostgreSQL and SQLite both accept.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SQLTxConfig groups parameters for WithSQLTx.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	Fn   func(*sql.Tx) error
}

// TxBeginner is satisfied by *sql.DB and *sql.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithSQLTx runs the given function within a database/sql transaction.
// The transaction commits when Fn returns nil and rolls back otherwise, including on panic.
func WithSQLTx(ctx context.Context, db TxBeginner, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Execer is the part of *sql.Tx the savepoint helpers need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ErrSavepointName is returned for an empty savepoint name.
var ErrSavepointName = errors.New("savepoint name is required")

func quoteSavepoint(name string) (string, error) {
	if name == "" {
		return "", ErrSavepointName
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// Savepoint opens a named savepoint inside tx.
func Savepoint(ctx context.Context, tx Execer, name string) error {
	ident, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}
	return nil
}

// ReleaseSavepoint keeps the work done since Savepoint.
func ReleaseSavepoint(ctx context.Context, tx Execer, name string) error {
	ident, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// RollbackToSavepoint discards the work done since Savepoint. The transaction stays open.
func RollbackToSavepoint(ctx context.Context, tx Execer, name string) error {
	ident, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("rollback to savepoint: %w", err)
	}
	return nil
}
