package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories. lockTimeout bounds how
// long a command waits for an invoice row lock; zero keeps the server default.
func NewRepositoryProvider(dbPool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo: newPgxLedgerRepository(dbPool, lockTimeout),
	}
}
