// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------
// WithTransaction runs fn inside a transaction: commit when fn returns nil,
// rollback on error or panic. fn receives an Executor bound to the
// transaction, so repository code written against Executor works unchanged.
//
//	err := database.WithTransaction(ctx, db, func(tx database.Executor) error {
//	    if _, err := tx.ExecContext(ctx, q1, a); err != nil {
//	        return err
//	    }
//	    _, err := tx.ExecContext(ctx, q2, b)
//	    return err
//	})
// -----------------------------------------------------------------------------

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithTransaction executes fn in a new transaction on db.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(tx Executor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
