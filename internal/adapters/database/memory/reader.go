package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_reconciler/internal/utils/pagination"
)

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice, created domain.HistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoice.InvoiceID]; exists {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, invoice.InvoiceID)
	}
	for _, inv := range s.invoices {
		if inv.OrganizationID == invoice.OrganizationID && inv.TenantID == invoice.TenantID && inv.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("%w: invoice number %s", apperrors.ErrDuplicate, invoice.InvoiceNumber)
		}
	}

	s.invoices[invoice.InvoiceID] = invoice
	s.nextSeq++
	created = cloneEvent(created)
	created.Sequence = s.nextSeq
	s.history[invoice.InvoiceID] = append(s.history[invoice.InvoiceID], created)
	return nil
}

func (s *Store) FindInvoiceByID(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvoiceNotFound, invoiceID)
	}
	return &inv, nil
}

func (s *Store) FindPaymentByID(_ context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
	}
	out := p.Clone()
	return &out, nil
}

func (s *Store) FindInvoiceSnapshot(_ context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, []domain.HistoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", apperrors.ErrInvoiceNotFound, invoiceID)
	}
	return &inv, s.paymentsOfLocked(invoiceID), s.historyOfLocked(invoiceID), nil
}

func (s *Store) ListHistory(_ context.Context, invoiceID string) ([]domain.HistoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.invoices[invoiceID]; !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvoiceNotFound, invoiceID)
	}
	return s.historyOfLocked(invoiceID), nil
}

func matchesFilter(p domain.Payment, f portsrepo.PaymentFilter) bool {
	switch {
	case p.OrganizationID != f.OrganizationID || p.TenantID != f.TenantID:
		return false
	case !f.IncludeVoided && p.Voided:
		return false
	case f.InvoiceID != nil && !p.BelongsTo(*f.InvoiceID):
		return false
	case f.Method != nil && p.Method != *f.Method:
		return false
	case f.Overdue != nil && p.Overdue != *f.Overdue:
		return false
	case f.CurrencyCode != nil && p.Amount.Currency != *f.CurrencyCode:
		return false
	case f.From != nil && p.PaymentDate.Before(*f.From):
		return false
	case f.To != nil && !p.PaymentDate.Before(*f.To):
		return false
	}
	return true
}

// ListPayments pages through matching payments ordered by (PaymentDate, PaymentID).
func (s *Store) ListPayments(_ context.Context, filter portsrepo.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	var (
		hasCursor bool
		cursor    domain.Payment
	)
	if nextToken != nil && *nextToken != "" {
		date, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		hasCursor = true
		cursor = domain.Payment{PaymentID: id, PaymentDate: date}
	}

	s.mu.RLock()
	matched := make([]domain.Payment, 0)
	for _, p := range s.payments {
		if matchesFilter(p, filter) {
			matched = append(matched, p.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return paymentKeyLess(matched[i], matched[j]) })

	start := 0
	if hasCursor {
		start = sort.Search(len(matched), func(i int) bool { return paymentKeyLess(cursor, matched[i]) })
	}
	page := matched[start:]

	var next *string
	if limit > 0 && len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		token := pagination.EncodeToken(last.PaymentDate, last.PaymentID)
		next = &token
	}
	return page, next, nil
}

func paymentKeyLess(a, b domain.Payment) bool {
	if !a.PaymentDate.Equal(b.PaymentDate) {
		return a.PaymentDate.Before(b.PaymentDate)
	}
	return a.PaymentID < b.PaymentID
}
