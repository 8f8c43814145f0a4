package reconciliation_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/core/reconciliation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceID = "inv-1"

func money(minor int64) domain.Money {
	return domain.Money{Amount: minor, Currency: "USD"}
}

func newInvoice(total int64) domain.Invoice {
	return domain.Invoice{
		InvoiceID:    invoiceID,
		CurrencyCode: "USD",
		TotalValue:   money(total),
		AlreadyPaid:  money(0),
		AmountDue:    money(total),
		Status:       domain.InvoiceSent,
	}
}

func payment(id string, minor int64) domain.Payment {
	inv := invoiceID
	return domain.Payment{PaymentID: id, InvoiceID: &inv, Amount: money(minor)}
}

func TestReconcile(t *testing.T) {
	otherInvoice := "inv-2"
	voided := payment("p-void", 5000)
	voided.Voided = true
	foreign := payment("p-foreign", 999)
	foreign.InvoiceID = &otherInvoice
	unassigned := domain.Payment{PaymentID: "p-free", Amount: money(700)}

	tests := []struct {
		name       string
		total      int64
		payments   []domain.Payment
		wantPaid   int64
		wantDue    int64
		wantStatus domain.InvoiceStatus
	}{
		{name: "no payments", total: 10000, wantPaid: 0, wantDue: 10000, wantStatus: domain.InvoiceViewed},
		{name: "partial", total: 10000, payments: []domain.Payment{payment("p1", 4000)}, wantPaid: 4000, wantDue: 6000, wantStatus: domain.InvoicePartiallyPaid},
		{name: "exact", total: 10000, payments: []domain.Payment{payment("p1", 4000), payment("p2", 6000)}, wantPaid: 10000, wantDue: 0, wantStatus: domain.InvoiceFullyPaid},
		{name: "overpaid clamps due", total: 10000, payments: []domain.Payment{payment("p1", 4000), payment("p2", 6000), payment("p3", 1000)}, wantPaid: 11000, wantDue: 0, wantStatus: domain.InvoiceOverpaid},
		{name: "voided payments ignored", total: 10000, payments: []domain.Payment{payment("p1", 4000), voided}, wantPaid: 4000, wantDue: 6000, wantStatus: domain.InvoicePartiallyPaid},
		{name: "other invoices and unassigned ignored", total: 10000, payments: []domain.Payment{foreign, unassigned}, wantPaid: 0, wantDue: 10000, wantStatus: domain.InvoiceViewed},
		{name: "zero total with no payment is viewed", total: 0, wantPaid: 0, wantDue: 0, wantStatus: domain.InvoiceViewed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reconciliation.Reconcile(newInvoice(tt.total), tt.payments)
			require.NoError(t, err)
			assert.Equal(t, money(tt.wantPaid), got.AlreadyPaid)
			assert.Equal(t, money(tt.wantDue), got.AmountDue)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestReconcile_CurrencyMismatch(t *testing.T) {
	p := payment("p1", 100)
	p.Amount = domain.Money{Amount: 100, Currency: "EUR"}

	_, err := reconciliation.Reconcile(newInvoice(10000), []domain.Payment{p})
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
}

func TestReconcile_Idempotent(t *testing.T) {
	inv := newInvoice(12345)
	payments := []domain.Payment{payment("p1", 45), payment("p2", 12000)}

	first, err := reconciliation.Reconcile(inv, payments)
	require.NoError(t, err)
	second, err := reconciliation.Reconcile(inv, payments)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Feeding the result back in changes nothing either.
	inv.AlreadyPaid, inv.AmountDue, inv.Status = first.AlreadyPaid, first.AmountDue, first.Status
	third, err := reconciliation.Reconcile(inv, payments)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

// Random totals and payment sets must always satisfy the invariants.
func TestReconcile_RandomInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		total := rng.Int63n(1_000_000)
		n := rng.Intn(6)
		payments := make([]domain.Payment, 0, n)
		var sum int64
		for j := 0; j < n; j++ {
			p := payment("p", rng.Int63n(400_000)+1)
			if rng.Intn(4) == 0 {
				p.Voided = true
			} else {
				sum += p.Amount.Amount
			}
			payments = append(payments, p)
		}

		got, err := reconciliation.Reconcile(newInvoice(total), payments)
		require.NoError(t, err)

		assert.Equal(t, sum, got.AlreadyPaid.Amount)
		assert.Equal(t, max(total-sum, 0), got.AmountDue.Amount)

		var want domain.InvoiceStatus
		switch {
		case sum == 0:
			want = domain.InvoiceViewed
		case sum < total:
			want = domain.InvoicePartiallyPaid
		case sum == total:
			want = domain.InvoiceFullyPaid
		default:
			want = domain.InvoiceOverpaid
		}
		assert.Equal(t, want, got.Status, "total=%d paid=%d", total, sum)
	}
}

func TestDeriveStatus_CurrencyMismatch(t *testing.T) {
	_, err := reconciliation.DeriveStatus(money(100), domain.Money{Amount: 1, Currency: "EUR"})
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	assert.False(t, reconciliation.IsOverdue(due.Add(-time.Hour), due))
	assert.False(t, reconciliation.IsOverdue(due, due), "paying on the due date is on time")
	assert.True(t, reconciliation.IsOverdue(due.Add(time.Second), due))
}

func TestPaidPercentage(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		paid  int64
		want  string
	}{
		{name: "nothing paid", total: 10000, paid: 0, want: "0"},
		{name: "forty percent", total: 10000, paid: 4000, want: "40"},
		{name: "rounded", total: 30000, paid: 10000, want: "33.33"},
		{name: "capped", total: 10000, paid: 11000, want: "100"},
		{name: "zero total paid", total: 0, paid: 1, want: "100"},
		{name: "zero total unpaid", total: 0, paid: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconciliation.PaidPercentage(money(tt.total), money(tt.paid))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
