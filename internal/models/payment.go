package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the payments row.
type Payment struct {
	PaymentID      string          `db:"payment_id"`
	InvoiceID      sql.NullString  `db:"invoice_id"` // Null for unassigned payments
	OrganizationID string          `db:"organization_id"`
	TenantID       string          `db:"tenant_id"`
	Amount         decimal.Decimal `db:"amount"`
	CurrencyCode   string          `db:"currency_code"`
	PaymentDate    time.Time       `db:"payment_date"`
	Method         string          `db:"method"`
	Note           string          `db:"note"`
	RecordedBy     string          `db:"recorded_by"`
	Overdue        bool            `db:"overdue"`
	Voided         bool            `db:"voided"`
	VoidedAt       sql.NullTime    `db:"voided_at"`
	VoidedBy       sql.NullString  `db:"voided_by"`
	AuditFields
}
