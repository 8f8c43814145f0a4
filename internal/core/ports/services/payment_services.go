package services

import (
	"context"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
)

// PaymentCommandSvc defines the state-changing payment commands. Each one
// runs as a single atomic transaction under the invoice's lock.
type PaymentCommandSvc interface {
	// RecordPayment applies a new payment to an invoice and reconciles it.
	RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error)

	// RecordFullPayment applies a payment of exactly the invoice's current amount due.
	RecordFullPayment(ctx context.Context, req dto.RecordFullPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error)

	// EditPayment changes amount, date, method or note of an existing payment.
	// The returned invoice is nil for unassigned payments.
	EditPayment(ctx context.Context, paymentID string, req dto.EditPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error)

	// DeletePayment voids a payment and reconciles its invoice.
	// The returned invoice is nil for unassigned payments.
	DeletePayment(ctx context.Context, paymentID string, actor domain.Actor) (*domain.Invoice, error)
}

// UnassignedPaymentSvc handles payments not yet linked to an invoice.
type UnassignedPaymentSvc interface {
	RecordUnassignedPayment(ctx context.Context, req dto.RecordUnassignedPaymentRequest, actor domain.Actor) (*domain.Payment, error)
}

// PaymentSvcFacade combines all payment-related service interfaces.
type PaymentSvcFacade interface {
	PaymentCommandSvc
	UnassignedPaymentSvc
}
