package domain

import "time"

// InvoiceStatus is the payment state of an invoice. The four paid states are
// derived by reconciliation and are never set directly by a client.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceSent          InvoiceStatus = "SENT"
	InvoiceViewed        InvoiceStatus = "VIEWED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceFullyPaid     InvoiceStatus = "FULLY_PAID"
	InvoiceOverpaid      InvoiceStatus = "OVERPAID"
)

// IsValid reports whether s is a known status.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoiceViewed, InvoicePartiallyPaid, InvoiceFullyPaid, InvoiceOverpaid:
		return true
	}
	return false
}

// Invoice is a billable document with a total owed and derived payment totals.
type Invoice struct {
	InvoiceID      string        `json:"invoiceID"`      // Primary Key (UUID)
	OrganizationID string        `json:"organizationID"` // Owning organization (Not Null)
	TenantID       string        `json:"tenantID"`
	InvoiceNumber  string        `json:"invoiceNumber"`
	CurrencyCode   string        `json:"currencyCode"` // All amounts below are in this currency
	TotalValue     Money         `json:"totalValue"`
	AlreadyPaid    Money         `json:"alreadyPaid"` // Σ non-voided payments
	AmountDue      Money         `json:"amountDue"`   // max(TotalValue - AlreadyPaid, 0)
	DueDate        time.Time     `json:"dueDate"`
	Status         InvoiceStatus `json:"status"`
	Version        int64         `json:"version"` // Optimistic concurrency token
	AuditFields
}

// OwnedBy reports whether the actor's organization and tenant own the invoice.
func (i Invoice) OwnedBy(actor Actor) bool {
	return i.OrganizationID == actor.OrganizationID && i.TenantID == actor.TenantID
}
