package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller's organization does not own the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected failure that is not the caller's fault.
var ErrInternal = errors.New("internal error")

// Reconciliation errors. Each one is a distinct sentinel; the validation and
// not-found families also match ErrValidation and ErrNotFound respectively.
var (
	ErrInvalidAmount    = kind("invalid amount", ErrValidation)
	ErrNegativeAmount   = kind("negative amount", ErrValidation)
	ErrAmountOverflow   = kind("amount overflow", ErrValidation)
	ErrInvalidCurrency  = kind("invalid currency code", ErrValidation)
	ErrCurrencyMismatch = kind("currency mismatch", ErrValidation)
	ErrInvoiceNotFound  = kind("invoice not found", ErrNotFound)
	ErrPaymentNotFound  = kind("payment not found", ErrNotFound)
	ErrVersionConflict  = kind("version conflict", nil)
	ErrStoreUnavailable = kind("store unavailable", nil)
)

type sentinel struct {
	msg    string
	parent error
}

func kind(msg string, parent error) error {
	return &sentinel{msg: msg, parent: parent}
}

func (s *sentinel) Error() string { return s.msg }

func (s *sentinel) Unwrap() error { return s.parent }

// AppError carries a sentinel Kind together with the underlying cause, so that
// errors.Is matches both the kind and the original driver error.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

// NewAppError creates an AppError. kind may be nil for uncategorised failures.
func NewAppError(kind error, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsRetryable reports whether the whole command may be resubmitted.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrStoreUnavailable)
}
