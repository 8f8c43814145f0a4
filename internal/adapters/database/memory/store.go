// Package memory is an in-process Ledger Store. Each invoice (and each
// unassigned payment) has its own lock; a transaction stages its writes and
// applies them only on commit, so a failed command leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
)

type Store struct {
	mu sync.RWMutex

	// Invoice storage
	invoices map[string]domain.Invoice

	// Payment storage, voided payments included
	payments map[string]domain.Payment

	// History storage, keyed by invoice ID, in sequence order
	history map[string][]domain.HistoryEvent
	nextSeq int64

	lockMu sync.Mutex
	locks  map[string]*keyLock
}

// keyLock is a per-key mutex; refs counts holders and waiters so idle
// entries can be dropped.
type keyLock struct {
	ch   chan struct{}
	refs int
}

func New() *Store {
	return &Store{
		invoices: make(map[string]domain.Invoice),
		payments: make(map[string]domain.Payment),
		history:  make(map[string][]domain.HistoryEvent),
		locks:    make(map[string]*keyLock),
	}
}

var _ portsrepo.LedgerRepositoryWithTx = (*Store)(nil)

func invoiceLockKey(invoiceID string) string { return "invoice:" + invoiceID }
func paymentLockKey(paymentID string) string { return "payment:" + paymentID }

func (s *Store) lockFor(key string) *keyLock {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

func (s *Store) unref(key string, l *keyLock) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

// acquire blocks until the lock for key is free or ctx is done.
func (s *Store) acquire(ctx context.Context, key string) (*keyLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrStoreUnavailable, "lock wait aborted for "+key, err)
	}
	l := s.lockFor(key)
	select {
	case l.ch <- struct{}{}:
		return l, nil
	case <-ctx.Done():
		s.unref(key, l)
		return nil, apperrors.NewAppError(apperrors.ErrStoreUnavailable, "timed out waiting for lock on "+key, ctx.Err())
	}
}

func (s *Store) release(key string, l *keyLock) {
	<-l.ch
	s.unref(key, l)
}

// RunInTx runs fn in a transaction. Locks taken inside fn are held until it
// returns; staged writes are applied only if fn succeeds and ctx is still live.
func (s *Store) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	tx := newLedgerTx(s)
	defer tx.releaseAll()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewAppError(apperrors.ErrStoreUnavailable, "transaction aborted before commit", err)
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *ledgerTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expected := range tx.expectedVersions {
		if current, ok := s.invoices[id]; !ok || current.Version != expected {
			return fmt.Errorf("%w: invoice %s changed before commit", apperrors.ErrVersionConflict, id)
		}
	}

	for id, inv := range tx.invoices {
		s.invoices[id] = inv
	}
	for id, p := range tx.payments {
		s.payments[id] = p
	}
	for _, e := range tx.history {
		s.nextSeq++
		e.Sequence = s.nextSeq
		s.history[e.InvoiceID] = append(s.history[e.InvoiceID], e)
	}
	return nil
}

func cloneEvent(e domain.HistoryEvent) domain.HistoryEvent {
	c := e
	if e.Amount != nil {
		amount := *e.Amount
		c.Amount = &amount
	}
	if e.FromStatus != nil {
		from := *e.FromStatus
		c.FromStatus = &from
	}
	if e.ToStatus != nil {
		to := *e.ToStatus
		c.ToStatus = &to
	}
	if e.PaymentID != nil {
		id := *e.PaymentID
		c.PaymentID = &id
	}
	return c
}

// sortPayments orders payments by payment date, then creation, then ID.
func sortPayments(payments []domain.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.Before(b.PaymentDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.PaymentID < b.PaymentID
	})
}

// paymentsOfLocked returns copies of the invoice's payments. Caller holds s.mu.
func (s *Store) paymentsOfLocked(invoiceID string) []domain.Payment {
	out := make([]domain.Payment, 0)
	for _, p := range s.payments {
		if p.BelongsTo(invoiceID) {
			out = append(out, p.Clone())
		}
	}
	sortPayments(out)
	return out
}

// historyOfLocked returns copies of the invoice's events by timestamp, then sequence. Caller holds s.mu.
func (s *Store) historyOfLocked(invoiceID string) []domain.HistoryEvent {
	events := s.history[invoiceID]
	out := make([]domain.HistoryEvent, len(events))
	for i, e := range events {
		out[i] = cloneEvent(e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}
