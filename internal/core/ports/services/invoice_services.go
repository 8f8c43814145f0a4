package services

import (
	"context"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoices, payments and history.
type InvoiceReaderSvc interface {
	// GetInvoiceWithPayments returns the invoice, all of its payments and its audit trail.
	GetInvoiceWithPayments(ctx context.Context, invoiceID string, actor domain.Actor) (*dto.InvoiceWithPaymentsResponse, error)

	// ListHistory returns the invoice's events ordered by timestamp ascending.
	ListHistory(ctx context.Context, invoiceID string, actor domain.Actor) ([]domain.HistoryEvent, error)

	// ListPayments retrieves a filtered, paginated list of the actor's payments.
	ListPayments(ctx context.Context, params dto.ListPaymentsParams, actor domain.Actor) (*dto.ListPaymentsResponse, error)
}

// InvoiceWriterSvc defines write operations for invoices.
type InvoiceWriterSvc interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actor domain.Actor) (*domain.Invoice, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces.
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
}
