package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
	"github.com/SscSPs/invoice_reconciler/internal/platform/config"
)

var actorArgs = []string{"--user", "user-1", "--org", "org-1", "--tenant", "tenant-1"}

func newTestApp() *app {
	return &app{
		cfg: &config.Config{
			Store:          config.StoreMemory,
			CommandTimeout: 5 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, actorArgs...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_InvoiceAndPaymentFlow(t *testing.T) {
	a := newTestApp()

	out, err := run(t, a, "invoice", "create", "--number", "INV-1", "--currency", "USD", "--total", "100.00", "--due-date", "2024-06-30")
	require.NoError(t, err)
	var inv dto.InvoiceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &inv))
	assert.Equal(t, "SENT", string(inv.Status))

	out, err = run(t, a, "payment", "record", "--invoice", inv.InvoiceID, "--amount", "40.00", "--currency", "USD", "--date", "2024-06-10")
	require.NoError(t, err)
	var recorded paymentResult
	require.NoError(t, json.Unmarshal([]byte(out), &recorded))
	require.NotNil(t, recorded.Invoice)
	require.NotNil(t, recorded.Payment)
	assert.Equal(t, "PARTIALLY_PAID", string(recorded.Invoice.Status))
	assert.False(t, recorded.Payment.Overdue)

	out, err = run(t, a, "payment", "record-full", "--invoice", inv.InvoiceID, "--date", "2024-07-02", "--method", "CASH")
	require.NoError(t, err)
	var full paymentResult
	require.NoError(t, json.Unmarshal([]byte(out), &full))
	assert.Equal(t, "FULLY_PAID", string(full.Invoice.Status))
	assert.True(t, full.Payment.Overdue)

	_, err = run(t, a, "payment", "edit", recorded.Payment.PaymentID, "--note", "corrected")
	require.NoError(t, err)

	out, err = run(t, a, "payment", "delete", recorded.Payment.PaymentID)
	require.NoError(t, err)
	var deleted paymentResult
	require.NoError(t, json.Unmarshal([]byte(out), &deleted))
	assert.Equal(t, "PARTIALLY_PAID", string(deleted.Invoice.Status))
	assert.Nil(t, deleted.Payment)

	out, err = run(t, a, "payment", "list", "--invoice", inv.InvoiceID, "--include-voided")
	require.NoError(t, err)
	var list dto.ListPaymentsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list.Payments, 2)

	out, err = run(t, a, "invoice", "show", inv.InvoiceID)
	require.NoError(t, err)
	var shown dto.InvoiceWithPaymentsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Len(t, shown.History, 8)
}

func TestCLI_Errors(t *testing.T) {
	a := newTestApp()

	_, err := run(t, a, "invoice", "create", "--number", "INV-1", "--currency", "USD", "--total", "1.00", "--due-date", "30/06/2024")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, a, "invoice", "show", "missing")
	assert.ErrorIs(t, err, apperrors.ErrInvoiceNotFound)
	assert.Equal(t, 3, exitCode(err))

	_, err = run(t, a, "migrate", "up")
	assert.Error(t, err, "migrate needs a Postgres store")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
