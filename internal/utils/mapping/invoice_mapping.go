package mapping

import (
	"fmt"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:      d.InvoiceID,
		OrganizationID: d.OrganizationID,
		TenantID:       d.TenantID,
		InvoiceNumber:  d.InvoiceNumber,
		CurrencyCode:   d.CurrencyCode,
		TotalValue:     d.TotalValue.Decimal(),
		AlreadyPaid:    d.AlreadyPaid.Decimal(),
		AmountDue:      d.AmountDue.Decimal(),
		DueDate:        d.DueDate,
		Status:         string(d.Status),
		Version:        d.Version,
		AuditFields:    toModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice. It fails when a
// stored amount does not fit the currency's minor units.
func ToDomainInvoice(m models.Invoice) (domain.Invoice, error) {
	total, err := domain.MoneyFromDecimal(m.TotalValue, m.CurrencyCode)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s total_value: %w", m.InvoiceID, err)
	}
	paid, err := domain.MoneyFromDecimal(m.AlreadyPaid, m.CurrencyCode)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s already_paid: %w", m.InvoiceID, err)
	}
	due, err := domain.MoneyFromDecimal(m.AmountDue, m.CurrencyCode)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s amount_due: %w", m.InvoiceID, err)
	}
	return domain.Invoice{
		InvoiceID:      m.InvoiceID,
		OrganizationID: m.OrganizationID,
		TenantID:       m.TenantID,
		InvoiceNumber:  m.InvoiceNumber,
		CurrencyCode:   m.CurrencyCode,
		TotalValue:     total,
		AlreadyPaid:    paid,
		AmountDue:      due,
		DueDate:        m.DueDate.UTC(),
		Status:         domain.InvoiceStatus(m.Status),
		Version:        m.Version,
		AuditFields:    toDomainAuditFields(m.AuditFields),
	}, nil
}
