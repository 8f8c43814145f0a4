// Package reconciliation derives an invoice's paid totals and status from its
// payment set. Everything here is pure: no I/O, no clock, no randomness, so a
// command that is retried against fresh state recomputes the same answer.
package reconciliation

import (
	"fmt"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Result is the derived state of an invoice.
type Result struct {
	AlreadyPaid domain.Money
	AmountDue   domain.Money
	Status      domain.InvoiceStatus
}

// Reconcile sums the non-voided payments that belong to the invoice and
// derives AlreadyPaid, AmountDue (clamped at zero) and Status. Payments for
// other invoices are ignored; a payment in another currency is an error.
func Reconcile(invoice domain.Invoice, payments []domain.Payment) (Result, error) {
	paid := domain.Zero(invoice.CurrencyCode)
	for _, p := range payments {
		if p.Voided || !p.BelongsTo(invoice.InvoiceID) {
			continue
		}
		if p.Amount.Currency != invoice.CurrencyCode {
			return Result{}, fmt.Errorf("%w: payment %s is in %s, invoice %s is in %s",
				apperrors.ErrCurrencyMismatch, p.PaymentID, p.Amount.Currency, invoice.InvoiceID, invoice.CurrencyCode)
		}
		var err error
		if paid, err = paid.Add(p.Amount); err != nil {
			return Result{}, fmt.Errorf("summing payments of invoice %s: %w", invoice.InvoiceID, err)
		}
	}

	remaining, err := invoice.TotalValue.Sub(paid)
	if err != nil {
		return Result{}, fmt.Errorf("computing amount due of invoice %s: %w", invoice.InvoiceID, err)
	}

	status, err := DeriveStatus(invoice.TotalValue, paid)
	if err != nil {
		return Result{}, err
	}

	return Result{
		AlreadyPaid: paid,
		AmountDue:   remaining.ClampNonNegative(),
		Status:      status,
	}, nil
}

// DeriveStatus applies the four-way rule: nothing paid is VIEWED, less than
// the total is PARTIALLY_PAID, exactly the total is FULLY_PAID, more is OVERPAID.
func DeriveStatus(total, paid domain.Money) (domain.InvoiceStatus, error) {
	if paid.IsZero() {
		return domain.InvoiceViewed, nil
	}
	cmp, err := paid.Compare(total)
	if err != nil {
		return "", err
	}
	switch {
	case cmp < 0:
		return domain.InvoicePartiallyPaid, nil
	case cmp == 0:
		return domain.InvoiceFullyPaid, nil
	default:
		return domain.InvoiceOverpaid, nil
	}
}

// IsOverdue reports whether a payment dated paymentDate is late for dueDate.
// It is evaluated once, when the payment date is set.
func IsOverdue(paymentDate, dueDate time.Time) bool {
	return paymentDate.After(dueDate)
}

// PaidPercentage is the share of the total already paid, in percent, rounded
// to two places and capped at 100. A zero total counts as fully paid once
// anything is paid.
func PaidPercentage(total, paid domain.Money) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if total.IsZero() {
		if paid.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	pct := paid.Decimal().Div(total.Decimal()).Mul(hundred).Round(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
