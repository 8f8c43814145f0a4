package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
)

// ledgerTx stages writes for one RunInTx call.
type ledgerTx struct {
	store *Store
	held  map[string]*keyLock

	expectedVersions map[string]int64
	invoices         map[string]domain.Invoice
	payments         map[string]domain.Payment
	history          []domain.HistoryEvent
}

var _ portsrepo.LedgerTx = (*ledgerTx)(nil)

func newLedgerTx(s *Store) *ledgerTx {
	return &ledgerTx{
		store:            s,
		held:             make(map[string]*keyLock),
		expectedVersions: make(map[string]int64),
		invoices:         make(map[string]domain.Invoice),
		payments:         make(map[string]domain.Payment),
	}
}

func (tx *ledgerTx) lock(ctx context.Context, key string) error {
	if _, ok := tx.held[key]; ok {
		return nil
	}
	l, err := tx.store.acquire(ctx, key)
	if err != nil {
		return err
	}
	tx.held[key] = l
	return nil
}

func (tx *ledgerTx) releaseAll() {
	for key, l := range tx.held {
		tx.store.release(key, l)
		delete(tx.held, key)
	}
}

func (tx *ledgerTx) holds(key string) bool {
	_, ok := tx.held[key]
	return ok
}

// currentPayment returns the staged version of a payment, falling back to the committed one.
func (tx *ledgerTx) currentPayment(paymentID string) (domain.Payment, bool) {
	if p, ok := tx.payments[paymentID]; ok {
		return p, true
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	p, ok := tx.store.payments[paymentID]
	return p, ok
}

// requireWriteLock checks that the lock guarding payment p is held.
func (tx *ledgerTx) requireWriteLock(p domain.Payment) error {
	key := paymentLockKey(p.PaymentID)
	if p.InvoiceID != nil {
		key = invoiceLockKey(*p.InvoiceID)
	}
	if !tx.holds(key) {
		return apperrors.NewAppError(apperrors.ErrInternal, "write without lock on "+key, nil)
	}
	return nil
}

func (tx *ledgerTx) LoadInvoiceForUpdate(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, error) {
	if err := tx.lock(ctx, invoiceLockKey(invoiceID)); err != nil {
		return nil, nil, err
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	inv, ok := tx.store.invoices[invoiceID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrInvoiceNotFound, invoiceID)
	}
	if staged, ok := tx.invoices[invoiceID]; ok {
		inv = staged
	}

	payments := tx.store.paymentsOfLocked(invoiceID)
	for i, p := range payments {
		if staged, ok := tx.payments[p.PaymentID]; ok {
			payments[i] = staged.Clone()
		}
	}
	for id, staged := range tx.payments {
		if _, committed := tx.store.payments[id]; !committed && staged.BelongsTo(invoiceID) {
			payments = append(payments, staged.Clone())
		}
	}
	sortPayments(payments)

	return &inv, payments, nil
}

func (tx *ledgerTx) LoadPaymentForUpdate(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if err := tx.lock(ctx, paymentLockKey(paymentID)); err != nil {
		return nil, err
	}
	p, ok := tx.currentPayment(paymentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
	}
	out := p.Clone()
	return &out, nil
}

func (tx *ledgerTx) SaveInvoice(_ context.Context, invoice domain.Invoice, expectedVersion int64) error {
	if !tx.holds(invoiceLockKey(invoice.InvoiceID)) {
		return apperrors.NewAppError(apperrors.ErrInternal, "invoice "+invoice.InvoiceID+" saved without being loaded for update", nil)
	}

	current := tx.store.invoiceVersion(invoice.InvoiceID)
	if staged, ok := tx.invoices[invoice.InvoiceID]; ok {
		current = staged.Version
	}
	if current != expectedVersion {
		return fmt.Errorf("%w: invoice %s is at version %d, expected %d",
			apperrors.ErrVersionConflict, invoice.InvoiceID, current, expectedVersion)
	}

	if _, ok := tx.expectedVersions[invoice.InvoiceID]; !ok {
		tx.expectedVersions[invoice.InvoiceID] = expectedVersion
	}
	tx.invoices[invoice.InvoiceID] = invoice
	return nil
}

func (s *Store) invoiceVersion(invoiceID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invoices[invoiceID].Version
}

func (tx *ledgerTx) InsertPayment(_ context.Context, payment domain.Payment) error {
	if _, exists := tx.currentPayment(payment.PaymentID); exists {
		return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
	}
	if payment.InvoiceID != nil {
		if err := tx.requireWriteLock(payment); err != nil {
			return err
		}
	}
	tx.payments[payment.PaymentID] = payment.Clone()
	return nil
}

func (tx *ledgerTx) UpdatePayment(_ context.Context, payment domain.Payment) error {
	existing, ok := tx.currentPayment(payment.PaymentID)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, payment.PaymentID)
	}
	if err := tx.requireWriteLock(existing); err != nil {
		return err
	}
	if (existing.InvoiceID == nil) != (payment.InvoiceID == nil) ||
		(existing.InvoiceID != nil && *existing.InvoiceID != *payment.InvoiceID) {
		return fmt.Errorf("%w: payment %s cannot move to another invoice", apperrors.ErrValidation, payment.PaymentID)
	}
	tx.payments[payment.PaymentID] = payment.Clone()
	return nil
}

func (tx *ledgerTx) VoidPayment(_ context.Context, paymentID string, voidedBy string, voidedAt time.Time) error {
	existing, ok := tx.currentPayment(paymentID)
	if !ok || existing.Voided {
		return fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
	}
	if err := tx.requireWriteLock(existing); err != nil {
		return err
	}

	voided := existing.Clone()
	voided.Voided = true
	voided.VoidedAt = &voidedAt
	voided.VoidedBy = &voidedBy
	voided.Touch(voidedBy, voidedAt)
	tx.payments[paymentID] = voided
	return nil
}

func (tx *ledgerTx) AppendHistory(_ context.Context, event domain.HistoryEvent) error {
	if !tx.holds(invoiceLockKey(event.InvoiceID)) {
		return apperrors.NewAppError(apperrors.ErrInternal, "history appended without lock on invoice "+event.InvoiceID, nil)
	}
	tx.history = append(tx.history, cloneEvent(event))
	return nil
}
