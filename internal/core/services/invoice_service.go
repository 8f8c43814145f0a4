package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_reconciler/internal/core/ports/services"
	"github.com/SscSPs/invoice_reconciler/internal/core/reconciliation"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
	"github.com/SscSPs/invoice_reconciler/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type invoiceService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryWithTx
	now        func() time.Time
	newID      func() string
}

// InvoiceServiceOption is a function that configures an invoiceService
type InvoiceServiceOption func(*invoiceService)

// WithInvoiceClock sets the time source used for audit fields.
func WithInvoiceClock(now func() time.Time) InvoiceServiceOption {
	return func(s *invoiceService) {
		s.now = now
	}
}

// WithInvoiceIDGenerator sets the generator for invoice and event ids.
func WithInvoiceIDGenerator(newID func() string) InvoiceServiceOption {
	return func(s *invoiceService) {
		s.newID = newID
	}
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(ledgerRepo portsrepo.LedgerRepositoryWithTx, opts ...InvoiceServiceOption) portssvc.InvoiceSvcFacade {
	s := &invoiceService{
		BaseService: newBaseService(),
		ledgerRepo:  ledgerRepo,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// CreateInvoice registers an invoice with nothing paid and records INVOICE_CREATED.
func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actor domain.Actor) (_ *domain.Invoice, err error) {
	ctx, finish := middleware.StartCommand(ctx, "CreateInvoice", slog.String("user_id", actor.UserID))
	defer func() { finish(err) }()

	req.CurrencyCode = normalizeCurrencyCode(req.CurrencyCode)
	if err := s.ValidateRequest(actor, req); err != nil {
		return nil, err
	}
	total, err := s.ParseAmount(req.TotalValue, req.CurrencyCode)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.InvoiceSent
	}

	now := s.now()
	invoice := domain.Invoice{
		InvoiceID:      s.newID(),
		OrganizationID: actor.OrganizationID,
		TenantID:       actor.TenantID,
		InvoiceNumber:  req.InvoiceNumber,
		CurrencyCode:   total.Currency,
		TotalValue:     total,
		AlreadyPaid:    domain.Zero(total.Currency),
		AmountDue:      total,
		DueDate:        req.DueDate,
		Status:         status,
		Version:        1,
		AuditFields:    domain.NewAuditFields(actor.UserID, now),
	}
	amount := total
	created := domain.HistoryEvent{
		EventID:        s.newID(),
		InvoiceID:      invoice.InvoiceID,
		Action:         domain.ActionInvoiceCreated,
		Amount:         &amount,
		ActorUserID:    actor.UserID,
		OrganizationID: invoice.OrganizationID,
		TenantID:       invoice.TenantID,
		Timestamp:      now,
	}

	if err := s.ledgerRepo.CreateInvoice(ctx, invoice, created); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to create invoice", slog.String("invoice_number", req.InvoiceNumber))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("total", total.String()))
	return &invoice, nil
}

// findOwnedInvoice loads an invoice and checks the actor may see it.
func (s *invoiceService) findOwnedInvoice(ctx context.Context, invoiceID string, actor domain.Actor) (*domain.Invoice, error) {
	invoice, err := s.ledgerRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeInvoice(ctx, invoice, actor); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetInvoiceWithPayments returns a consistent snapshot of an invoice, its
// payments and its history.
func (s *invoiceService) GetInvoiceWithPayments(ctx context.Context, invoiceID string, actor domain.Actor) (*dto.InvoiceWithPaymentsResponse, error) {
	if err := s.ValidateRequest(actor, nil); err != nil {
		return nil, err
	}

	invoice, payments, history, err := s.ledgerRepo.FindInvoiceSnapshot(ctx, invoiceID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load invoice snapshot", slog.String("invoice_id", invoiceID))
		}
		return nil, err
	}
	if err := s.AuthorizeInvoice(ctx, invoice, actor); err != nil {
		return nil, err
	}

	return &dto.InvoiceWithPaymentsResponse{
		Invoice:        dto.ToInvoiceResponse(invoice),
		Payments:       dto.ToPaymentResponses(payments),
		History:        dto.ToHistoryEventResponses(history),
		PaidPercentage: reconciliation.PaidPercentage(invoice.TotalValue, invoice.AlreadyPaid),
	}, nil
}

// ListHistory returns the invoice's audit trail, oldest first.
func (s *invoiceService) ListHistory(ctx context.Context, invoiceID string, actor domain.Actor) ([]domain.HistoryEvent, error) {
	if err := s.ValidateRequest(actor, nil); err != nil {
		return nil, err
	}
	if _, err := s.findOwnedInvoice(ctx, invoiceID, actor); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListHistory(ctx, invoiceID)
}

// ListPayments retrieves a page of the actor's payments.
func (s *invoiceService) ListPayments(ctx context.Context, params dto.ListPaymentsParams, actor domain.Actor) (*dto.ListPaymentsResponse, error) {
	if params.CurrencyCode != nil {
		code := normalizeCurrencyCode(*params.CurrencyCode)
		params.CurrencyCode = &code
	}
	if err := s.ValidateRequest(actor, params); err != nil {
		return nil, err
	}
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		return nil, fmt.Errorf("%w: from must be before to", apperrors.ErrValidation)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := portsrepo.PaymentFilter{
		OrganizationID: actor.OrganizationID,
		TenantID:       actor.TenantID,
		InvoiceID:      params.InvoiceID,
		Method:         params.Method,
		Overdue:        params.Overdue,
		CurrencyCode:   params.CurrencyCode,
		From:           params.From,
		To:             params.To,
		IncludeVoided:  params.IncludeVoided,
	}

	payments, nextToken, err := s.ledgerRepo.ListPayments(ctx, filter, limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list payments")
		}
		return nil, err
	}

	return &dto.ListPaymentsResponse{
		Payments:  dto.ToPaymentResponses(payments),
		NextToken: nextToken,
	}, nil
}
