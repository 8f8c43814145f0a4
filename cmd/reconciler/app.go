package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/invoice_reconciler/internal/adapters/database/memory"
	"github.com/SscSPs/invoice_reconciler/internal/adapters/database/pgsql"
	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_reconciler/internal/core/ports/services"
	"github.com/SscSPs/invoice_reconciler/internal/core/services"
	"github.com/SscSPs/invoice_reconciler/internal/platform/config"
	"github.com/SscSPs/invoice_reconciler/pkg/database"
)

// app wires the configured store to the services on first use.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	pool     *pgxpool.Pool
	services *portssvc.ServiceContainer
}

func (a *app) serviceContainer(ctx context.Context) (*portssvc.ServiceContainer, error) {
	if a.services != nil {
		return a.services, nil
	}

	var repos portsrepo.RepositoryProvider
	switch a.cfg.Store {
	case config.StoreMemory:
		a.logger.Warn("Using in-memory store; state is discarded when the command exits")
		repos = portsrepo.RepositoryProvider{LedgerRepo: memory.New()}
	default:
		pool, err := database.NewPgxPool(ctx, a.cfg.DatabaseURL, database.PoolOptions{
			MaxConns: a.cfg.DBMaxConns,
			Ping:     a.cfg.EnableDBCheck,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrStoreUnavailable, err.Error())
		}
		a.pool = pool
		repos = pgsql.NewRepositoryProvider(pool, a.cfg.LockTimeout)
	}

	a.services = services.NewServiceContainer(a.cfg, repos)
	return a.services, nil
}

func (a *app) close() {
	if a.pool != nil {
		database.ClosePgxPool(a.pool, a.logger)
		a.pool = nil
	}
}

// exitCode gives scripts a stable way to tell failure classes apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return 2
	case errors.Is(err, apperrors.ErrNotFound):
		return 3
	case errors.Is(err, apperrors.ErrForbidden):
		return 4
	case errors.Is(err, apperrors.ErrVersionConflict):
		return 5
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return 6
	default:
		return 1
	}
}
