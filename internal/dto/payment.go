package dto

import (
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest defines the data needed to apply a payment to an invoice.
// Amount is a decimal string in major units, e.g. "40.00".
type RecordPaymentRequest struct {
	InvoiceID    string               `json:"invoiceID" validate:"required"`
	Amount       string               `json:"amount"`
	CurrencyCode string               `json:"currencyCode" validate:"required,iso4217"`
	PaymentDate  time.Time            `json:"paymentDate" validate:"required"`
	Method       domain.PaymentMethod `json:"method" validate:"required,oneof=BANK_TRANSFER CASH CHEQUE CREDIT_CARD DEBIT ONLINE"`
	Note         string               `json:"note" validate:"max=1000"`
}

// RecordFullPaymentRequest pays whatever is currently due on the invoice.
type RecordFullPaymentRequest struct {
	InvoiceID   string               `json:"invoiceID" validate:"required"`
	PaymentDate time.Time            `json:"paymentDate" validate:"required"`
	Method      domain.PaymentMethod `json:"method" validate:"required,oneof=BANK_TRANSFER CASH CHEQUE CREDIT_CARD DEBIT ONLINE"`
	Note        string               `json:"note" validate:"max=1000"`
}

// RecordUnassignedPaymentRequest records a pre-payment not linked to any invoice.
type RecordUnassignedPaymentRequest struct {
	Amount       string               `json:"amount"`
	CurrencyCode string               `json:"currencyCode" validate:"required,iso4217"`
	PaymentDate  time.Time            `json:"paymentDate" validate:"required"`
	Method       domain.PaymentMethod `json:"method" validate:"required,oneof=BANK_TRANSFER CASH CHEQUE CREDIT_CARD DEBIT ONLINE"`
	Note         string               `json:"note" validate:"max=1000"`
}

// EditPaymentRequest defines the fields allowed to change on a payment.
// Use pointers to distinguish between zero-value updates and fields not provided.
type EditPaymentRequest struct {
	Amount       *string               `json:"amount"`
	CurrencyCode *string               `json:"currencyCode" validate:"required_with=Amount,omitempty,iso4217"`
	PaymentDate  *time.Time            `json:"paymentDate"`
	Method       *domain.PaymentMethod `json:"method" validate:"omitempty,oneof=BANK_TRANSFER CASH CHEQUE CREDIT_CARD DEBIT ONLINE"`
	Note         *string               `json:"note" validate:"omitempty,max=1000"`
}

// ListPaymentsParams defines the filters and pagination for listing payments.
type ListPaymentsParams struct {
	InvoiceID     *string               `json:"invoiceID"`
	Method        *domain.PaymentMethod `json:"method" validate:"omitempty,oneof=BANK_TRANSFER CASH CHEQUE CREDIT_CARD DEBIT ONLINE"`
	Overdue       *bool                 `json:"overdue"`
	CurrencyCode  *string               `json:"currencyCode" validate:"omitempty,iso4217"`
	From          *time.Time            `json:"from"`
	To            *time.Time            `json:"to"`
	IncludeVoided bool                  `json:"includeVoided"`
	Limit         int                   `json:"limit" validate:"omitempty,min=1,max=100"`
	NextToken     *string               `json:"nextToken"`
}

// MoneyResponse renders Money in major units.
type MoneyResponse struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID   string               `json:"paymentID"`
	InvoiceID   *string              `json:"invoiceID,omitempty"`
	Amount      MoneyResponse        `json:"amount"`
	PaymentDate time.Time            `json:"paymentDate"`
	Method      domain.PaymentMethod `json:"method"`
	Note        string               `json:"note,omitempty"`
	RecordedBy  string               `json:"recordedBy"`
	Overdue     bool                 `json:"overdue"`
	Voided      bool                 `json:"voided"`
	VoidedAt    *time.Time           `json:"voidedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ListPaymentsResponse is one page of payments.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToMoneyResponse converts domain.Money to MoneyResponse.
func ToMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Decimal(), Currency: m.Currency}
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:   p.PaymentID,
		InvoiceID:   p.InvoiceID,
		Amount:      ToMoneyResponse(p.Amount),
		PaymentDate: p.PaymentDate,
		Method:      p.Method,
		Note:        p.Note,
		RecordedBy:  p.RecordedBy,
		Overdue:     p.Overdue,
		Voided:      p.Voided,
		VoidedAt:    p.VoidedAt,
		CreatedAt:   p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	res := make([]PaymentResponse, len(payments))
	for i := range payments {
		res[i] = ToPaymentResponse(&payments[i])
	}
	return res
}
