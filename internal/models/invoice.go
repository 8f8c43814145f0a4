package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the invoices row. Amounts are in major units of CurrencyCode.
type Invoice struct {
	InvoiceID      string          `db:"invoice_id"`
	OrganizationID string          `db:"organization_id"`
	TenantID       string          `db:"tenant_id"`
	InvoiceNumber  string          `db:"invoice_number"`
	CurrencyCode   string          `db:"currency_code"`
	TotalValue     decimal.Decimal `db:"total_value"`
	AlreadyPaid    decimal.Decimal `db:"already_paid"`
	AmountDue      decimal.Decimal `db:"amount_due"`
	DueDate        time.Time       `db:"due_date"`
	Status         string          `db:"status"`
	Version        int64           `db:"version"`
	AuditFields
}
