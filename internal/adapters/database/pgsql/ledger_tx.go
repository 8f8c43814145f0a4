package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_reconciler/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

// pgxLedgerTx runs command writes on one pgx transaction. Row locks taken with
// FOR UPDATE are held until the surrounding RunInTx commits or rolls back.
type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (t *pgxLedgerTx) LoadInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1 FOR UPDATE`
	inv, err := scanInvoice(t.tx.QueryRow(ctx, query, invoiceID))
	if err != nil {
		return nil, nil, mapPgError(err, "invoice "+invoiceID, apperrors.ErrInvoiceNotFound)
	}

	rows, err := t.tx.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE invoice_id = $1
		ORDER BY payment_date, created_at, payment_id`, invoiceID)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to load payments of invoice "+invoiceID, nil)
	}
	payments, err := collectPayments(rows)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to scan payments of invoice "+invoiceID, nil)
	}
	return &inv, payments, nil
}

func (t *pgxLedgerTx) LoadPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1 FOR UPDATE`
	p, err := scanPayment(t.tx.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, mapPgError(err, "payment "+paymentID, apperrors.ErrPaymentNotFound)
	}
	return &p, nil
}

func (t *pgxLedgerTx) SaveInvoice(ctx context.Context, invoice domain.Invoice, expectedVersion int64) error {
	m := mapping.ToModelInvoice(invoice)
	query := `
		UPDATE invoices
		SET already_paid = $2, amount_due = $3, status = $4, version = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE invoice_id = $1 AND version = $8`

	tag, err := t.tx.Exec(ctx, query,
		m.InvoiceID, m.AlreadyPaid, m.AmountDue, m.Status, m.Version,
		m.LastUpdatedAt, m.LastUpdatedBy, expectedVersion,
	)
	if err != nil {
		return mapPgError(err, "failed to save invoice "+invoice.InvoiceID, nil)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s is no longer at version %d", apperrors.ErrVersionConflict, invoice.InvoiceID, expectedVersion)
	}
	return nil
}

func (t *pgxLedgerTx) InsertPayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payments (payment_id, invoice_id, organization_id, tenant_id, amount, currency_code,
			payment_date, method, note, recorded_by, overdue, voided, voided_at, voided_by,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := t.tx.Exec(ctx, query,
		m.PaymentID, m.InvoiceID, m.OrganizationID, m.TenantID, m.Amount, m.CurrencyCode,
		m.PaymentDate, m.Method, m.Note, m.RecordedBy, m.Overdue, m.Voided, m.VoidedAt, m.VoidedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapPgError(err, "failed to insert payment "+payment.PaymentID, nil)
}

// UpdatePayment rewrites the mutable fields of an active payment. The invoice
// link is part of the WHERE clause so a payment can never move.
func (t *pgxLedgerTx) UpdatePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `
		UPDATE payments
		SET amount = $2, currency_code = $3, payment_date = $4, method = $5, note = $6, overdue = $7,
			last_updated_at = $8, last_updated_by = $9
		WHERE payment_id = $1 AND voided = FALSE AND invoice_id IS NOT DISTINCT FROM $10`

	tag, err := t.tx.Exec(ctx, query,
		m.PaymentID, m.Amount, m.CurrencyCode, m.PaymentDate, m.Method, m.Note, m.Overdue,
		m.LastUpdatedAt, m.LastUpdatedBy, m.InvoiceID,
	)
	if err != nil {
		return mapPgError(err, "failed to update payment "+payment.PaymentID, nil)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var voided bool
	err = t.tx.QueryRow(ctx, `SELECT voided FROM payments WHERE payment_id = $1`, payment.PaymentID).Scan(&voided)
	if err != nil {
		return mapPgError(err, "payment "+payment.PaymentID, apperrors.ErrPaymentNotFound)
	}
	if voided {
		return fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, payment.PaymentID)
	}
	return fmt.Errorf("%w: payment %s cannot move to another invoice", apperrors.ErrValidation, payment.PaymentID)
}

func (t *pgxLedgerTx) VoidPayment(ctx context.Context, paymentID string, voidedBy string, voidedAt time.Time) error {
	query := `
		UPDATE payments
		SET voided = TRUE, voided_at = $2, voided_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE payment_id = $1 AND voided = FALSE`

	tag, err := t.tx.Exec(ctx, query, paymentID, voidedAt, voidedBy)
	if err != nil {
		return mapPgError(err, "failed to void payment "+paymentID, nil)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
	}
	return nil
}

func (t *pgxLedgerTx) AppendHistory(ctx context.Context, event domain.HistoryEvent) error {
	return insertHistory(ctx, t.tx, event)
}

func insertHistory(ctx context.Context, q querier, event domain.HistoryEvent) error {
	m := mapping.ToModelHistoryEvent(event)
	query := `
		INSERT INTO invoice_history (event_id, invoice_id, action, amount, currency_code,
			from_status, to_status, payment_id, actor_user_id, organization_id, tenant_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.Exec(ctx, query,
		m.EventID, m.InvoiceID, m.Action, m.Amount, m.CurrencyCode,
		m.FromStatus, m.ToStatus, m.PaymentID, m.ActorUserID, m.OrganizationID, m.TenantID, m.OccurredAt,
	)
	return mapPgError(err, "failed to append history event to invoice "+event.InvoiceID, nil)
}
