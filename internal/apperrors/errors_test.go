package apperrors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestSentinelFamilies(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		parent error
	}{
		{name: "invalid amount is validation", err: apperrors.ErrInvalidAmount, parent: apperrors.ErrValidation},
		{name: "currency mismatch is validation", err: apperrors.ErrCurrencyMismatch, parent: apperrors.ErrValidation},
		{name: "invoice not found is not found", err: apperrors.ErrInvoiceNotFound, parent: apperrors.ErrNotFound},
		{name: "payment not found is not found", err: apperrors.ErrPaymentNotFound, parent: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.parent)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.parent)
		})
	}

	assert.NotErrorIs(t, apperrors.ErrInvoiceNotFound, apperrors.ErrPaymentNotFound)
	assert.NotErrorIs(t, apperrors.ErrVersionConflict, apperrors.ErrValidation)
}

func TestAppError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := apperrors.NewAppError(apperrors.ErrStoreUnavailable, "failed to lock invoice", cause)

	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "failed to lock invoice: context deadline exceeded", err.Error())

	var appErr *apperrors.AppError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, "failed to lock invoice", appErr.Message)

	bare := apperrors.NewAppError(nil, "no cause", nil)
	assert.Equal(t, "no cause", bare.Error())
	assert.Empty(t, bare.Unwrap())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, apperrors.IsRetryable(apperrors.ErrVersionConflict))
	assert.True(t, apperrors.IsRetryable(apperrors.NewAppError(apperrors.ErrStoreUnavailable, "x", nil)))
	assert.False(t, apperrors.IsRetryable(apperrors.ErrInvalidAmount))
	assert.False(t, apperrors.IsRetryable(nil))
}
