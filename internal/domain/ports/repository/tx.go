package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through repository calls.
// Postgres implementations accept pgx.Tx; nil means "use the pool".
type Tx any

// TransactionManager begins a transaction, invokes fn and commits, rolling
// back when fn returns an error.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
