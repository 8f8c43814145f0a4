package mapping

import (
	"database/sql"
	"fmt"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/models"
	"github.com/shopspring/decimal"
)

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStatus(s *domain.InvoiceStatus) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func statusPtr(ns sql.NullString) *domain.InvoiceStatus {
	if !ns.Valid {
		return nil
	}
	s := domain.InvoiceStatus(ns.String)
	return &s
}

// ToModelHistoryEvent converts a domain HistoryEvent to a model HistoryEvent.
// Sequence is left to the database.
func ToModelHistoryEvent(d domain.HistoryEvent) models.HistoryEvent {
	m := models.HistoryEvent{
		EventID:        d.EventID,
		InvoiceID:      d.InvoiceID,
		Action:         string(d.Action),
		FromStatus:     nullStatus(d.FromStatus),
		ToStatus:       nullStatus(d.ToStatus),
		PaymentID:      nullString(d.PaymentID),
		ActorUserID:    d.ActorUserID,
		OrganizationID: d.OrganizationID,
		TenantID:       d.TenantID,
		OccurredAt:     d.Timestamp,
	}
	if d.Amount != nil {
		m.Amount = decimal.NewNullDecimal(d.Amount.Decimal())
		m.CurrencyCode = sql.NullString{String: d.Amount.Currency, Valid: true}
	}
	return m
}

// ToDomainHistoryEvent converts a model HistoryEvent to a domain HistoryEvent
func ToDomainHistoryEvent(m models.HistoryEvent) (domain.HistoryEvent, error) {
	d := domain.HistoryEvent{
		EventID:        m.EventID,
		InvoiceID:      m.InvoiceID,
		Action:         domain.HistoryAction(m.Action),
		FromStatus:     statusPtr(m.FromStatus),
		ToStatus:       statusPtr(m.ToStatus),
		ActorUserID:    m.ActorUserID,
		OrganizationID: m.OrganizationID,
		TenantID:       m.TenantID,
		Timestamp:      m.OccurredAt.UTC(),
		Sequence:       m.Sequence,
	}
	if m.PaymentID.Valid {
		id := m.PaymentID.String
		d.PaymentID = &id
	}
	if m.Amount.Valid {
		if !m.CurrencyCode.Valid {
			return domain.HistoryEvent{}, fmt.Errorf("history event %s has an amount without a currency", m.EventID)
		}
		amount, err := domain.MoneyFromDecimal(m.Amount.Decimal, m.CurrencyCode.String)
		if err != nil {
			return domain.HistoryEvent{}, fmt.Errorf("history event %s amount: %w", m.EventID, err)
		}
		d.Amount = &amount
	}
	return d, nil
}

// ToDomainHistorySlice converts a slice of model HistoryEvents to domain HistoryEvents
func ToDomainHistorySlice(ms []models.HistoryEvent) ([]domain.HistoryEvent, error) {
	ds := make([]domain.HistoryEvent, len(ms))
	for i, m := range ms {
		d, err := ToDomainHistoryEvent(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
