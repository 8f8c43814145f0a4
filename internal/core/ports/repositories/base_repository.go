package repositories

import "context"

// TxFunc is the body of a unit of work. Returning an error rolls everything back.
type TxFunc func(ctx context.Context, tx LedgerTx) error

// TransactionManager runs a unit of work inside one store transaction. The
// store commits only when fn returns nil; it never partially commits.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}
