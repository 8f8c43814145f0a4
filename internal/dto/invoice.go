package dto

import (
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest defines the data needed to register an invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoiceNumber" validate:"required,max=64"`
	CurrencyCode  string               `json:"currencyCode" validate:"required,iso4217"`
	TotalValue    string               `json:"totalValue"`
	DueDate       time.Time            `json:"dueDate" validate:"required"`
	Status        domain.InvoiceStatus `json:"status" validate:"omitempty,oneof=DRAFT SENT"` // Defaults to SENT
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID     string               `json:"invoiceID"`
	InvoiceNumber string               `json:"invoiceNumber"`
	TotalValue    MoneyResponse        `json:"totalValue"`
	AlreadyPaid   MoneyResponse        `json:"alreadyPaid"`
	AmountDue     MoneyResponse        `json:"amountDue"`
	DueDate       time.Time            `json:"dueDate"`
	Status        domain.InvoiceStatus `json:"status"`
	Version       int64                `json:"version"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
}

// HistoryEventResponse defines the data returned for a history entry.
type HistoryEventResponse struct {
	EventID     string                `json:"eventID"`
	Action      domain.HistoryAction  `json:"action"`
	Amount      *MoneyResponse        `json:"amount,omitempty"`
	FromStatus  *domain.InvoiceStatus `json:"fromStatus,omitempty"`
	ToStatus    *domain.InvoiceStatus `json:"toStatus,omitempty"`
	PaymentID   *string               `json:"paymentID,omitempty"`
	ActorUserID string                `json:"actorUserID"`
	Timestamp   time.Time             `json:"timestamp"`
}

// InvoiceWithPaymentsResponse is the combined view of an invoice, its
// payments (voided ones flagged) and its audit trail.
type InvoiceWithPaymentsResponse struct {
	Invoice        InvoiceResponse        `json:"invoice"`
	Payments       []PaymentResponse      `json:"payments"`
	History        []HistoryEventResponse `json:"history"`
	PaidPercentage decimal.Decimal        `json:"paidPercentage"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:     inv.InvoiceID,
		InvoiceNumber: inv.InvoiceNumber,
		TotalValue:    ToMoneyResponse(inv.TotalValue),
		AlreadyPaid:   ToMoneyResponse(inv.AlreadyPaid),
		AmountDue:     ToMoneyResponse(inv.AmountDue),
		DueDate:       inv.DueDate,
		Status:        inv.Status,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		CreatedBy:     inv.CreatedBy,
		LastUpdatedAt: inv.LastUpdatedAt,
	}
}

// ToHistoryEventResponses converts history events to their response DTOs.
func ToHistoryEventResponses(events []domain.HistoryEvent) []HistoryEventResponse {
	res := make([]HistoryEventResponse, len(events))
	for i, e := range events {
		res[i] = HistoryEventResponse{
			EventID:     e.EventID,
			Action:      e.Action,
			FromStatus:  e.FromStatus,
			ToStatus:    e.ToStatus,
			PaymentID:   e.PaymentID,
			ActorUserID: e.ActorUserID,
			Timestamp:   e.Timestamp,
		}
		if e.Amount != nil {
			m := ToMoneyResponse(*e.Amount)
			res[i].Amount = &m
		}
	}
	return res
}
