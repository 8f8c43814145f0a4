package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEvent is the invoice_history row. The table is insert-only.
type HistoryEvent struct {
	Sequence       int64               `db:"sequence"`
	EventID        string              `db:"event_id"`
	InvoiceID      string              `db:"invoice_id"`
	Action         string              `db:"action"`
	Amount         decimal.NullDecimal `db:"amount"`
	CurrencyCode   sql.NullString      `db:"currency_code"`
	FromStatus     sql.NullString      `db:"from_status"`
	ToStatus       sql.NullString      `db:"to_status"`
	PaymentID      sql.NullString      `db:"payment_id"`
	ActorUserID    string              `db:"actor_user_id"`
	OrganizationID string              `db:"organization_id"`
	TenantID       string              `db:"tenant_id"`
	OccurredAt     time.Time           `db:"occurred_at"`
}
