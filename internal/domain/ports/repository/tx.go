package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via tx.
//
// Repository methods that receive a tx detect it (implementation-side) and run
// SELECT ... FOR UPDATE / tx-bound Exec/Query. Row locks taken that way are
// held until fn returns and the transaction commits or rolls back.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
//		code, err := codes.FindByIDForUpdate(ctx, tx, id)
//		...
//		return err
//	})
//
// The concrete type of tx is infra-defined (pgx.Tx for Postgres).
// Repositories MUST accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
