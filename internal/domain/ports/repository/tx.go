package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager provides a thin abstraction to execute a function within
// a database transaction, passing the underlying transaction handle via `tx`.
//
// Repositories accept the same handle as their second argument and MUST
// gracefully accept nil (non-transactional path). The concrete type of the
// handle is infra-defined (pgx.Tx for Postgres); implementations use it to
// run SELECT ... FOR UPDATE and tx-bound Exec/Query where needed.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
