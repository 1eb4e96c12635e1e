package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Executor is the query surface shared by *sqlx.DB and *sqlx.Tx, so
// repositories run the same code inside and outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

var (
	_ Executor = (*sqlx.DB)(nil)
	_ Executor = (*sqlx.Tx)(nil)
)
