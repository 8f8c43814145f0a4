package pgsql

import (
	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/models"
	"github.com/SscSPs/invoice_reconciler/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const invoiceColumns = `invoice_id, organization_id, tenant_id, invoice_number, currency_code,
	total_value, already_paid, amount_due, due_date, status, version,
	created_at, created_by, last_updated_at, last_updated_by`

const paymentColumns = `payment_id, invoice_id, organization_id, tenant_id, amount, currency_code,
	payment_date, method, note, recorded_by, overdue, voided, voided_at, voided_by,
	created_at, created_by, last_updated_at, last_updated_by`

const historyColumns = `sequence, event_id, invoice_id, action, amount, currency_code,
	from_status, to_status, payment_id, actor_user_id, organization_id, tenant_id, occurred_at`

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID, &m.OrganizationID, &m.TenantID, &m.InvoiceNumber, &m.CurrencyCode,
		&m.TotalValue, &m.AlreadyPaid, &m.AmountDue, &m.DueDate, &m.Status, &m.Version,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv, err := mapping.ToDomainInvoice(m)
	if err != nil {
		return domain.Invoice{}, apperrors.NewAppError(apperrors.ErrInternal, "stored invoice is not representable", err)
	}
	return inv, nil
}

func scanPayment(row rowScanner) (domain.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID, &m.InvoiceID, &m.OrganizationID, &m.TenantID, &m.Amount, &m.CurrencyCode,
		&m.PaymentDate, &m.Method, &m.Note, &m.RecordedBy, &m.Overdue, &m.Voided, &m.VoidedAt, &m.VoidedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Payment{}, err
	}
	p, err := mapping.ToDomainPayment(m)
	if err != nil {
		return domain.Payment{}, apperrors.NewAppError(apperrors.ErrInternal, "stored payment is not representable", err)
	}
	return p, nil
}

func scanHistoryEvent(row rowScanner) (domain.HistoryEvent, error) {
	var m models.HistoryEvent
	err := row.Scan(
		&m.Sequence, &m.EventID, &m.InvoiceID, &m.Action, &m.Amount, &m.CurrencyCode,
		&m.FromStatus, &m.ToStatus, &m.PaymentID, &m.ActorUserID, &m.OrganizationID, &m.TenantID, &m.OccurredAt,
	)
	if err != nil {
		return domain.HistoryEvent{}, err
	}
	ev, err := mapping.ToDomainHistoryEvent(m)
	if err != nil {
		return domain.HistoryEvent{}, apperrors.NewAppError(apperrors.ErrInternal, "stored history event is not representable", err)
	}
	return ev, nil
}

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func collectHistory(rows pgx.Rows) ([]domain.HistoryEvent, error) {
	defer rows.Close()

	events := make([]domain.HistoryEvent, 0)
	for rows.Next() {
		ev, err := scanHistoryEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
