package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that mean "try again later".
var unavailableCodes = map[string]bool{
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available (lock_timeout)
	"57014": true, // query_canceled (statement_timeout)
	"57P01": true, // admin_shutdown
	"53300": true, // too_many_connections
}

// mapPgError translates a pgx error into the apperrors vocabulary. notFound,
// when non-nil, is returned for pgx.ErrNoRows.
func mapPgError(err error, msg string, notFound error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return fmt.Errorf("%w: %s", notFound, msg)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewAppError(apperrors.ErrStoreUnavailable, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001": // serialization_failure
			return apperrors.NewAppError(apperrors.ErrVersionConflict, msg, err)
		case unavailableCodes[pgErr.Code]:
			return apperrors.NewAppError(apperrors.ErrStoreUnavailable, msg, err)
		case pgErr.Code == "23505": // unique_violation
			return apperrors.NewAppError(apperrors.ErrDuplicate, msg, err)
		case pgErr.Code == "22003": // numeric_value_out_of_range
			return apperrors.NewAppError(apperrors.ErrAmountOverflow, msg, err)
		case pgErr.Code == "23514": // check_violation
			return apperrors.NewAppError(apperrors.ErrValidation, msg, err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return apperrors.NewAppError(apperrors.ErrStoreUnavailable, msg, err)
	}

	return apperrors.NewAppError(apperrors.ErrInternal, msg, err)
}
