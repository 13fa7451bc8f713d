// Package dbx provides the small database layer shared by repositories and
// services: the connection pool constructor, a minimal interface (DBTX)
// implemented by both *sql.DB and *sql.Tx, a helper to run functions inside a
// transaction, and classification of driver errors.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction on db. It commits when fn returns nil and
// rolls back when fn fails or panics; a panic is re-raised after the
// rollback. fn's error comes back as is, so typed errors such as
// common.ErrDuplicateUsername survive the transaction boundary.
//
// Account creation writes the account and its credential rows together:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//		if _, err := repos.Accounts(tx).Create(ctx, account); err != nil {
//			return err
//		}
//		return repos.Credentials(tx).Insert(ctx, secret)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
