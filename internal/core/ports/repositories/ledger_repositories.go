package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
)

// PaymentFilter narrows ListPayments. OrganizationID and TenantID are required;
// nil fields do not filter.
type PaymentFilter struct {
	OrganizationID string
	TenantID       string
	InvoiceID      *string
	Method         *domain.PaymentMethod
	Overdue        *bool
	CurrencyCode   *string
	From           *time.Time // Inclusive, on PaymentDate
	To             *time.Time // Exclusive, on PaymentDate
	IncludeVoided  bool
}

// LedgerTx is the set of operations available inside one command transaction.
type LedgerTx interface {
	// LoadInvoiceForUpdate locks the invoice exclusively until the transaction
	// ends and returns it with every payment (voided included) applied to it.
	LoadInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, error)

	// LoadPaymentForUpdate locks a single payment row. Used for unassigned payments.
	LoadPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error)

	// SaveInvoice writes the derived totals, status and invoice.Version, failing
	// with ErrVersionConflict if the stored version is not expectedVersion.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, expectedVersion int64) error

	InsertPayment(ctx context.Context, payment domain.Payment) error
	UpdatePayment(ctx context.Context, payment domain.Payment) error
	VoidPayment(ctx context.Context, paymentID string, voidedBy string, voidedAt time.Time) error

	// AppendHistory inserts an event. There is no update or delete.
	AppendHistory(ctx context.Context, event domain.HistoryEvent) error
}

// LedgerReader defines read operations outside a command transaction.
type LedgerReader interface {
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindInvoiceSnapshot reads an invoice, its payments and its history from
	// one consistent point in time.
	FindInvoiceSnapshot(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, []domain.HistoryEvent, error)

	// ListPayments returns payments ordered by (PaymentDate, PaymentID) using
	// token-based pagination. It returns the page, a token for the next page, and an error.
	ListPayments(ctx context.Context, filter PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error)
}

// HistoryReader defines read operations on the audit trail.
type HistoryReader interface {
	// ListHistory returns an invoice's events by timestamp ascending.
	ListHistory(ctx context.Context, invoiceID string) ([]domain.HistoryEvent, error)
}

// InvoiceWriter registers new invoices.
type InvoiceWriter interface {
	// CreateInvoice inserts the invoice and its creation event atomically.
	CreateInvoice(ctx context.Context, invoice domain.Invoice, created domain.HistoryEvent) error
}

// LedgerRepositoryFacade combines all ledger read/write interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	HistoryReader
	InvoiceWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
