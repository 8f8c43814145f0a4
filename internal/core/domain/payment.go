package domain

import "time"

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebit        PaymentMethod = "DEBIT"
	MethodOnline       PaymentMethod = "ONLINE"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodCheque, MethodCreditCard, MethodDebit, MethodOnline:
		return true
	}
	return false
}

// Payment is a single monetary application against an invoice, or an
// unassigned pre-payment when InvoiceID is nil.
type Payment struct {
	PaymentID      string        `json:"paymentID"`           // Primary Key (UUID)
	InvoiceID      *string       `json:"invoiceID,omitempty"` // Weak reference, never changes after creation
	OrganizationID string        `json:"organizationID"`
	TenantID       string        `json:"tenantID"`
	Amount         Money         `json:"amount"`
	PaymentDate    time.Time     `json:"paymentDate"`
	Method         PaymentMethod `json:"method"`
	Note           string        `json:"note"`
	RecordedBy     string        `json:"recordedBy"` // UserID Reference
	Overdue        bool          `json:"overdue"`    // Snapshot taken when the payment date was set
	Voided         bool          `json:"voided"`
	VoidedAt       *time.Time    `json:"voidedAt,omitempty"`
	VoidedBy       *string       `json:"voidedBy,omitempty"`
	AuditFields
}

// BelongsTo reports whether the payment is applied to the given invoice.
func (p Payment) BelongsTo(invoiceID string) bool {
	return p.InvoiceID != nil && *p.InvoiceID == invoiceID
}

// IsUnassigned reports whether the payment is not linked to any invoice.
func (p Payment) IsUnassigned() bool {
	return p.InvoiceID == nil
}

// OwnedBy reports whether the actor's organization and tenant own the payment.
func (p Payment) OwnedBy(actor Actor) bool {
	return p.OrganizationID == actor.OrganizationID && p.TenantID == actor.TenantID
}

// Clone returns a deep copy so callers cannot alias stored pointers.
func (p Payment) Clone() Payment {
	c := p
	if p.InvoiceID != nil {
		id := *p.InvoiceID
		c.InvoiceID = &id
	}
	if p.VoidedAt != nil {
		at := *p.VoidedAt
		c.VoidedAt = &at
	}
	if p.VoidedBy != nil {
		by := *p.VoidedBy
		c.VoidedBy = &by
	}
	return c
}
