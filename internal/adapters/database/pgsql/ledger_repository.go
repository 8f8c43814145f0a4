package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_reconciler/internal/utils/mapping"
	"github.com/SscSPs/invoice_reconciler/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx using pgxpool.
type PgxLedgerRepository struct {
	BaseRepository
	lockTimeout time.Duration
}

// newPgxLedgerRepository creates a new repository for ledger data access.
func newPgxLedgerRepository(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		lockTimeout:    lockTimeout,
	}
}

// Ensure PgxLedgerRepository implements the interface
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// RunInTx runs fn in a read-committed transaction with a bounded lock wait.
func (r *PgxLedgerRepository) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if r.lockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapPgError(err, "failed to set lock timeout", nil)
		}
	}

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// CreateInvoice inserts the invoice and its creation event in one transaction.
func (r *PgxLedgerRepository) CreateInvoice(ctx context.Context, invoice domain.Invoice, created domain.HistoryEvent) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	m := mapping.ToModelInvoice(invoice)
	query := `
		INSERT INTO invoices (invoice_id, organization_id, tenant_id, invoice_number, currency_code,
			total_value, already_paid, amount_due, due_date, status, version,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, query,
		m.InvoiceID, m.OrganizationID, m.TenantID, m.InvoiceNumber, m.CurrencyCode,
		m.TotalValue, m.AlreadyPaid, m.AmountDue, m.DueDate, m.Status, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to insert invoice "+invoice.InvoiceNumber, nil)
	}
	if err := insertHistory(ctx, tx, created); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxLedgerRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1`
	inv, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		return nil, mapPgError(err, invoiceID, apperrors.ErrInvoiceNotFound)
	}
	return &inv, nil
}

func (r *PgxLedgerRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	p, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, mapPgError(err, paymentID, apperrors.ErrPaymentNotFound)
	}
	return &p, nil
}

// FindInvoiceSnapshot reads inside a repeatable-read, read-only transaction so
// the invoice, payments and history agree with each other.
func (r *PgxLedgerRepository) FindInvoiceSnapshot(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, []domain.HistoryEvent, error) {
	tx, err := r.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1`, invoiceID))
	if err != nil {
		return nil, nil, nil, mapPgError(err, invoiceID, apperrors.ErrInvoiceNotFound)
	}

	rows, err := tx.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE invoice_id = $1
		ORDER BY payment_date, created_at, payment_id`, invoiceID)
	if err != nil {
		return nil, nil, nil, mapPgError(err, "failed to query payments of invoice "+invoiceID, nil)
	}
	payments, err := collectPayments(rows)
	if err != nil {
		return nil, nil, nil, mapPgError(err, "failed to scan payments of invoice "+invoiceID, nil)
	}

	history, err := queryHistory(ctx, tx, invoiceID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &inv, payments, history, nil
}

func (r *PgxLedgerRepository) ListHistory(ctx context.Context, invoiceID string) ([]domain.HistoryEvent, error) {
	history, err := queryHistory(ctx, r.Pool, invoiceID)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		return history, nil
	}

	var exists bool
	err = r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_id = $1)`, invoiceID).Scan(&exists)
	if err != nil {
		return nil, mapPgError(err, "failed to check invoice "+invoiceID, nil)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvoiceNotFound, invoiceID)
	}
	return history, nil
}

func queryHistory(ctx context.Context, q querier, invoiceID string) ([]domain.HistoryEvent, error) {
	rows, err := q.Query(ctx, `SELECT `+historyColumns+` FROM invoice_history
		WHERE invoice_id = $1
		ORDER BY occurred_at, sequence`, invoiceID)
	if err != nil {
		return nil, mapPgError(err, "failed to query history of invoice "+invoiceID, nil)
	}
	history, err := collectHistory(rows)
	if err != nil {
		return nil, mapPgError(err, "failed to scan history of invoice "+invoiceID, nil)
	}
	return history, nil
}

// ListPayments pages through matching payments ordered by (payment_date, payment_id).
func (r *PgxLedgerRepository) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	where("organization_id = $%d", filter.OrganizationID)
	where("tenant_id = $%d", filter.TenantID)
	if !filter.IncludeVoided {
		conds = append(conds, "voided = FALSE")
	}
	if filter.InvoiceID != nil {
		where("invoice_id = $%d", *filter.InvoiceID)
	}
	if filter.Method != nil {
		where("method = $%d", string(*filter.Method))
	}
	if filter.Overdue != nil {
		where("overdue = $%d", *filter.Overdue)
	}
	if filter.CurrencyCode != nil {
		where("currency_code = $%d", *filter.CurrencyCode)
	}
	if filter.From != nil {
		where("payment_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		where("payment_date < $%d", *filter.To)
	}
	if nextToken != nil && *nextToken != "" {
		date, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, date, id)
		conds = append(conds, fmt.Sprintf("(payment_date, payment_id) > ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY payment_date, payment_id`
	if limit > 0 {
		// One extra row tells us whether another page exists.
		args = append(args, limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to list payments", nil)
	}
	payments, err := collectPayments(rows)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to scan payments", nil)
	}

	var next *string
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
		last := payments[len(payments)-1]
		token := pagination.EncodeToken(last.PaymentDate, last.PaymentID)
		next = &token
	}
	return payments, next, nil
}
