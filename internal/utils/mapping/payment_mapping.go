package mapping

import (
	"database/sql"
	"fmt"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	m := models.Payment{
		PaymentID:      d.PaymentID,
		OrganizationID: d.OrganizationID,
		TenantID:       d.TenantID,
		Amount:         d.Amount.Decimal(),
		CurrencyCode:   d.Amount.Currency,
		PaymentDate:    d.PaymentDate,
		Method:         string(d.Method),
		Note:           d.Note,
		RecordedBy:     d.RecordedBy,
		Overdue:        d.Overdue,
		Voided:         d.Voided,
		AuditFields:    toModelAuditFields(d.AuditFields),
	}
	if d.InvoiceID != nil {
		m.InvoiceID = sql.NullString{String: *d.InvoiceID, Valid: true}
	}
	if d.VoidedAt != nil {
		m.VoidedAt = sql.NullTime{Time: *d.VoidedAt, Valid: true}
	}
	if d.VoidedBy != nil {
		m.VoidedBy = sql.NullString{String: *d.VoidedBy, Valid: true}
	}
	return m
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) (domain.Payment, error) {
	amount, err := domain.MoneyFromDecimal(m.Amount, m.CurrencyCode)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("payment %s amount: %w", m.PaymentID, err)
	}
	d := domain.Payment{
		PaymentID:      m.PaymentID,
		OrganizationID: m.OrganizationID,
		TenantID:       m.TenantID,
		Amount:         amount,
		PaymentDate:    m.PaymentDate.UTC(),
		Method:         domain.PaymentMethod(m.Method),
		Note:           m.Note,
		RecordedBy:     m.RecordedBy,
		Overdue:        m.Overdue,
		Voided:         m.Voided,
		AuditFields:    toDomainAuditFields(m.AuditFields),
	}
	if m.InvoiceID.Valid {
		id := m.InvoiceID.String
		d.InvoiceID = &id
	}
	if m.VoidedAt.Valid {
		at := m.VoidedAt.Time.UTC()
		d.VoidedAt = &at
	}
	if m.VoidedBy.Valid {
		by := m.VoidedBy.String
		d.VoidedBy = &by
	}
	return d, nil
}

// ToDomainPaymentSlice converts a slice of model Payments to domain Payments
func ToDomainPaymentSlice(ms []models.Payment) ([]domain.Payment, error) {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		d, err := ToDomainPayment(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
