package domain

import "time"

// HistoryAction names a reconciliation-affecting event.
type HistoryAction string

const (
	ActionInvoiceCreated HistoryAction = "INVOICE_CREATED"
	ActionPaymentAdded   HistoryAction = "PAYMENT_ADDED"
	ActionPaymentEdited  HistoryAction = "PAYMENT_EDITED"
	ActionPaymentDeleted HistoryAction = "PAYMENT_DELETED"
	ActionStatusChanged  HistoryAction = "STATUS_CHANGED"
)

// HistoryEvent is one write-once entry of an invoice's audit trail.
type HistoryEvent struct {
	EventID        string         `json:"eventID"`
	InvoiceID      string         `json:"invoiceID"`
	Action         HistoryAction  `json:"action"`
	Amount         *Money         `json:"amount,omitempty"`
	FromStatus     *InvoiceStatus `json:"fromStatus,omitempty"` // Set for STATUS_CHANGED
	ToStatus       *InvoiceStatus `json:"toStatus,omitempty"`   // Set for STATUS_CHANGED
	PaymentID      *string        `json:"paymentID,omitempty"`
	ActorUserID    string         `json:"actorUserID"`
	OrganizationID string         `json:"organizationID"`
	TenantID       string         `json:"tenantID"`
	Timestamp      time.Time      `json:"timestamp"`
	Sequence       int64          `json:"sequence"` // Store-assigned; orders events with equal timestamps
}
