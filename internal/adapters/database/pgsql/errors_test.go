package pgsql

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, mapPgError(nil, "noop", nil))
	})

	t.Run("no rows becomes the given not-found kind", func(t *testing.T) {
		err := mapPgError(pgx.ErrNoRows, "inv-1", apperrors.ErrInvoiceNotFound)
		assert.ErrorIs(t, err, apperrors.ErrInvoiceNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("no rows without a not-found kind is internal", func(t *testing.T) {
		err := mapPgError(pgx.ErrNoRows, "select", nil)
		assert.ErrorIs(t, err, apperrors.ErrInternal)
	})

	t.Run("context errors are unavailable", func(t *testing.T) {
		assert.ErrorIs(t, mapPgError(context.DeadlineExceeded, "q", nil), apperrors.ErrStoreUnavailable)
		assert.ErrorIs(t, mapPgError(context.Canceled, "q", nil), apperrors.ErrStoreUnavailable)
	})

	codes := map[string]error{
		"40001": apperrors.ErrVersionConflict,
		"40P01": apperrors.ErrStoreUnavailable,
		"55P03": apperrors.ErrStoreUnavailable,
		"57014": apperrors.ErrStoreUnavailable,
		"23505": apperrors.ErrDuplicate,
		"22003": apperrors.ErrAmountOverflow,
		"23514": apperrors.ErrValidation,
		"42P01": apperrors.ErrInternal,
	}
	for code, want := range codes {
		t.Run("code "+code, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: code, Message: "boom"}
			err := mapPgError(pgErr, "stmt", nil)
			assert.ErrorIs(t, err, want)

			var got *pgconn.PgError
			assert.True(t, errors.As(err, &got), "cause must stay reachable")
		})
	}

	t.Run("serialization failures are retried as conflicts", func(t *testing.T) {
		err := mapPgError(&pgconn.PgError{Code: "40001"}, "commit", nil)
		assert.NotErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("app errors pass through untouched", func(t *testing.T) {
		orig := apperrors.NewAppError(apperrors.ErrVersionConflict, "stale", nil)
		assert.Same(t, orig, mapPgError(orig, "ignored", nil))
	})
}
