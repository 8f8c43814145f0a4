package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	"github.com/SscSPs/invoice_reconciler/internal/core/services"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

// Ensure MockLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockLedgerRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerRepository) FindInvoiceSnapshot(ctx context.Context, invoiceID string) (*domain.Invoice, []domain.Payment, []domain.HistoryEvent, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*domain.Invoice), args.Get(1).([]domain.Payment), args.Get(2).([]domain.HistoryEvent), args.Error(3)
}

func (m *MockLedgerRepository) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	args := m.Called(ctx, filter, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Payment), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) ListHistory(ctx context.Context, invoiceID string) ([]domain.HistoryEvent, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEvent), args.Error(1)
}

func (m *MockLedgerRepository) CreateInvoice(ctx context.Context, invoice domain.Invoice, created domain.HistoryEvent) error {
	args := m.Called(ctx, invoice, created)
	return args.Error(0)
}

func (s *PaymentServiceTestSuite) TestCreateInvoice() {
	inv := s.createInvoice("250.50")
	s.Equal(domain.InvoiceSent, inv.Status)
	s.Equal(int64(1), inv.Version)
	s.True(usd(s, "250.50").Equal(inv.AmountDue))
	s.True(inv.AlreadyPaid.IsZero())
	s.Equal(owner.OrganizationID, inv.OrganizationID)

	_, err := s.invoiceSvc.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		InvoiceNumber: inv.InvoiceNumber,
		CurrencyCode:  "USD",
		TotalValue:    "1.00",
		DueDate:       dueDate,
	}, owner)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	_, err = s.invoiceSvc.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		InvoiceNumber: "INV-X",
		CurrencyCode:  "USD",
		TotalValue:    "-1.00",
		DueDate:       dueDate,
	}, owner)
	s.ErrorIs(err, apperrors.ErrInvalidAmount)

	for _, total := range []string{"abc", "", "1e2", "12.3.4"} {
		_, err = s.invoiceSvc.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
			InvoiceNumber: "INV-Z",
			CurrencyCode:  "USD",
			TotalValue:    total,
			DueDate:       dueDate,
		}, owner)
		s.ErrorIs(err, apperrors.ErrInvalidAmount, total)
	}

	lower, err := s.invoiceSvc.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		InvoiceNumber: "INV-Y",
		CurrencyCode:  " usd ",
		TotalValue:    "1.00",
		DueDate:       dueDate,
	}, owner)
	s.Require().NoError(err)
	s.Equal("USD", lower.CurrencyCode)

	_, err = s.invoiceSvc.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		InvoiceNumber: "INV-W",
		CurrencyCode:  "ZZZ",
		TotalValue:    "1.00",
		DueDate:       dueDate,
	}, owner)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *PaymentServiceTestSuite) TestGetInvoiceWithPayments() {
	inv := s.createInvoice("200.00")
	_, first, err := s.paymentSvc.RecordPayment(s.ctx, recordReq(inv.InvoiceID, "50.00"), owner)
	s.Require().NoError(err)
	_, _, err = s.paymentSvc.RecordPayment(s.ctx, recordReq(inv.InvoiceID, "25.00"), owner)
	s.Require().NoError(err)
	_, err = s.paymentSvc.DeletePayment(s.ctx, first.PaymentID, owner)
	s.Require().NoError(err)

	view, err := s.invoiceSvc.GetInvoiceWithPayments(s.ctx, inv.InvoiceID, owner)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePartiallyPaid, view.Invoice.Status)
	s.Len(view.Payments, 2, "voided payments are included")
	s.True(view.Payments[0].Voided || view.Payments[1].Voided)
	s.True(decimal.RequireFromString("12.5").Equal(view.PaidPercentage))
	s.True(decimal.RequireFromString("25").Equal(view.Invoice.AlreadyPaid.Amount))
	s.Len(view.History, 5)

	stranger := domain.Actor{UserID: "user-9", OrganizationID: "org-2", TenantID: "tenant-1"}
	_, err = s.invoiceSvc.GetInvoiceWithPayments(s.ctx, inv.InvoiceID, stranger)
	s.ErrorIs(err, apperrors.ErrForbidden)
	_, err = s.invoiceSvc.ListHistory(s.ctx, inv.InvoiceID, stranger)
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.invoiceSvc.GetInvoiceWithPayments(s.ctx, "missing", owner)
	s.ErrorIs(err, apperrors.ErrInvoiceNotFound)
}

func (s *PaymentServiceTestSuite) TestListPayments() {
	inv := s.createInvoice("100.00")
	for i := 0; i < 3; i++ {
		req := recordReq(inv.InvoiceID, "10.00")
		req.PaymentDate = dueDate.Add(time.Duration(i-1) * 24 * time.Hour)
		_, _, err := s.paymentSvc.RecordPayment(s.ctx, req, owner)
		s.Require().NoError(err)
	}
	_, err := s.paymentSvc.RecordUnassignedPayment(s.ctx, dto.RecordUnassignedPaymentRequest{
		Amount: "5.00", CurrencyCode: "USD", PaymentDate: dueDate, Method: domain.MethodCash,
	}, owner)
	s.Require().NoError(err)

	page, err := s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{Limit: 3}, owner)
	s.Require().NoError(err)
	s.Len(page.Payments, 3)
	s.Require().NotNil(page.NextToken)

	page, err = s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{Limit: 3, NextToken: page.NextToken}, owner)
	s.Require().NoError(err)
	s.Len(page.Payments, 1)
	s.Nil(page.NextToken)

	overdue := true
	page, err = s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{InvoiceID: &inv.InvoiceID, Overdue: &overdue}, owner)
	s.Require().NoError(err)
	s.Len(page.Payments, 1)
	s.True(page.Payments[0].Overdue)

	lower := "usd"
	page, err = s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{InvoiceID: &inv.InvoiceID, CurrencyCode: &lower}, owner)
	s.Require().NoError(err)
	s.NotEmpty(page.Payments)

	_, err = s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{Limit: 500}, owner)
	s.ErrorIs(err, apperrors.ErrValidation)

	from, to := dueDate, dueDate.Add(-time.Hour)
	_, err = s.invoiceSvc.ListPayments(s.ctx, dto.ListPaymentsParams{From: &from, To: &to}, owner)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestInvoiceService_ListPayments_DefaultsAndScope(t *testing.T) {
	repo := new(MockLedgerRepository)
	svc := services.NewInvoiceService(repo)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u", OrganizationID: "org-1", TenantID: "tenant-1"}

	expectedFilter := portsrepo.PaymentFilter{OrganizationID: "org-1", TenantID: "tenant-1"}
	repo.On("ListPayments", ctx, expectedFilter, 20, (*string)(nil)).Return([]domain.Payment{}, "next", nil).Once()

	resp, err := svc.ListPayments(ctx, dto.ListPaymentsParams{}, actor)
	require.NoError(t, err)
	assert.Empty(t, resp.Payments)
	require.NotNil(t, resp.NextToken)
	assert.Equal(t, "next", *resp.NextToken)
	repo.AssertExpectations(t)
}

func TestInvoiceService_StoreUnavailable(t *testing.T) {
	repo := new(MockLedgerRepository)
	svc := services.NewInvoiceService(repo)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u", OrganizationID: "org-1", TenantID: "tenant-1"}

	unavailable := apperrors.NewAppError(apperrors.ErrStoreUnavailable, "connection refused", nil)
	repo.On("FindInvoiceSnapshot", ctx, "inv-1").Return(nil, nil, nil, unavailable).Once()

	_, err := svc.GetInvoiceWithPayments(ctx, "inv-1", actor)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	repo.AssertExpectations(t)
}

func TestPaymentService_StoreUnavailableIsRetried(t *testing.T) {
	repo := new(MockLedgerRepository)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u", OrganizationID: "org-1", TenantID: "tenant-1"}
	unavailable := apperrors.NewAppError(apperrors.ErrStoreUnavailable, "connection reset", nil)
	repo.On("RunInTx", mock.Anything, mock.Anything).Return(unavailable)

	svc := services.NewPaymentService(repo, services.WithRetry(3, time.Millisecond))
	_, _, err := svc.RecordPayment(ctx, recordReqFor("inv-1"), actor)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	repo.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestPaymentService_PermanentErrorIsNotRetried(t *testing.T) {
	repo := new(MockLedgerRepository)
	ctx := context.Background()
	actor := domain.Actor{UserID: "u", OrganizationID: "org-1", TenantID: "tenant-1"}
	repo.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrInvoiceNotFound)

	svc := services.NewPaymentService(repo, services.WithRetry(5, time.Millisecond))
	_, _, err := svc.RecordPayment(ctx, recordReqFor("inv-1"), actor)
	assert.ErrorIs(t, err, apperrors.ErrInvoiceNotFound)
	repo.AssertNumberOfCalls(t, "RunInTx", 1)
}

func TestPaymentService_ValidationNeverTouchesStore(t *testing.T) {
	repo := new(MockLedgerRepository)
	svc := services.NewPaymentService(repo)
	actor := domain.Actor{UserID: "u", OrganizationID: "org-1", TenantID: "tenant-1"}

	req := recordReqFor("inv-1")
	req.Amount = "0"
	_, _, err := svc.RecordPayment(context.Background(), req, actor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything)
}

func recordReqFor(invoiceID string) dto.RecordPaymentRequest {
	return recordReq(invoiceID, "10.00")
}
