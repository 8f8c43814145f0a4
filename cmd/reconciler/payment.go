package main

import (
	"github.com/spf13/cobra"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
)

// paymentResult is printed after commands that touch an invoice.
type paymentResult struct {
	Invoice *dto.InvoiceResponse `json:"invoice,omitempty"`
	Payment *dto.PaymentResponse `json:"payment,omitempty"`
}

func newPaymentResult(inv *domain.Invoice, p *domain.Payment) paymentResult {
	var out paymentResult
	if inv != nil {
		r := dto.ToInvoiceResponse(inv)
		out.Invoice = &r
	}
	if p != nil {
		r := dto.ToPaymentResponse(p)
		out.Payment = &r
	}
	return out
}

func newPaymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Record, edit, delete and list payments",
	}
	cmd.AddCommand(
		newPaymentRecordCmd(a),
		newPaymentRecordFullCmd(a),
		newPaymentRecordUnassignedCmd(a),
		newPaymentEditCmd(a),
		newPaymentDeleteCmd(a),
		newPaymentListCmd(a),
	)
	return cmd
}

func addPaymentDetailFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Payment date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("method", string(domain.MethodBankTransfer), "BANK_TRANSFER, CASH, CHEQUE, CREDIT_CARD, DEBIT or ONLINE")
	cmd.Flags().String("note", "", "Free-text note")
}

func newPaymentRecordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Short:   "Apply a payment to an invoice",
		Example: `  reconciler payment record --invoice <id> --amount 40.00 --currency USD --date 2024-06-10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			invoiceID, _ := cmd.Flags().GetString("invoice")
			amount, _ := cmd.Flags().GetString("amount")
			currency, _ := cmd.Flags().GetString("currency")
			method, _ := cmd.Flags().GetString("method")
			note, _ := cmd.Flags().GetString("note")
			rawDate, _ := cmd.Flags().GetString("date")
			date, err := parseDate("date", rawDate)
			if err != nil {
				return err
			}

			inv, p, err := svc.Payment.RecordPayment(cmd.Context(), dto.RecordPaymentRequest{
				InvoiceID:    invoiceID,
				Amount:       amount,
				CurrencyCode: currency,
				PaymentDate:  date,
				Method:       domain.PaymentMethod(method),
				Note:         note,
			}, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, newPaymentResult(inv, p))
		},
	}
	cmd.Flags().String("invoice", "", "Invoice ID")
	cmd.Flags().String("amount", "", "Amount in major units, e.g. 40.00")
	cmd.Flags().String("currency", "", "ISO 4217 currency code; must match the invoice")
	addPaymentDetailFlags(cmd)
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newPaymentRecordFullCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record-full",
		Short: "Pay the amount currently due on an invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			invoiceID, _ := cmd.Flags().GetString("invoice")
			method, _ := cmd.Flags().GetString("method")
			note, _ := cmd.Flags().GetString("note")
			rawDate, _ := cmd.Flags().GetString("date")
			date, err := parseDate("date", rawDate)
			if err != nil {
				return err
			}

			inv, p, err := svc.Payment.RecordFullPayment(cmd.Context(), dto.RecordFullPaymentRequest{
				InvoiceID:   invoiceID,
				PaymentDate: date,
				Method:      domain.PaymentMethod(method),
				Note:        note,
			}, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, newPaymentResult(inv, p))
		},
	}
	cmd.Flags().String("invoice", "", "Invoice ID")
	addPaymentDetailFlags(cmd)
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newPaymentRecordUnassignedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record-unassigned",
		Short: "Record a pre-payment not linked to any invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetString("amount")
			currency, _ := cmd.Flags().GetString("currency")
			method, _ := cmd.Flags().GetString("method")
			note, _ := cmd.Flags().GetString("note")
			rawDate, _ := cmd.Flags().GetString("date")
			date, err := parseDate("date", rawDate)
			if err != nil {
				return err
			}

			p, err := svc.Payment.RecordUnassignedPayment(cmd.Context(), dto.RecordUnassignedPaymentRequest{
				Amount:       amount,
				CurrencyCode: currency,
				PaymentDate:  date,
				Method:       domain.PaymentMethod(method),
				Note:         note,
			}, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, newPaymentResult(nil, p))
		},
	}
	cmd.Flags().String("amount", "", "Amount in major units")
	cmd.Flags().String("currency", "", "ISO 4217 currency code")
	addPaymentDetailFlags(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newPaymentEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <payment-id>",
		Short:   "Change a payment's amount, date, method or note",
		Example: `  reconciler payment edit <id> --amount 50.00 --currency USD`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			date, err := optionalDate(cmd, "date")
			if err != nil {
				return err
			}
			req := dto.EditPaymentRequest{
				Amount:       optionalString(cmd, "amount"),
				CurrencyCode: optionalString(cmd, "currency"),
				PaymentDate:  date,
				Note:         optionalString(cmd, "note"),
			}
			if m := optionalString(cmd, "method"); m != nil {
				method := domain.PaymentMethod(*m)
				req.Method = &method
			}

			inv, p, err := svc.Payment.EditPayment(cmd.Context(), args[0], req, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, newPaymentResult(inv, p))
		},
	}
	cmd.Flags().String("amount", "", "New amount in major units")
	cmd.Flags().String("currency", "", "Currency of --amount; required with it")
	cmd.Flags().String("date", "", "New payment date")
	cmd.Flags().String("method", "", "New payment method")
	cmd.Flags().String("note", "", "New note")
	return cmd
}

func newPaymentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <payment-id>",
		Short: "Void a payment and reconcile its invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			inv, err := svc.Payment.DeletePayment(cmd.Context(), args[0], actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, newPaymentResult(inv, nil))
		},
	}
}

func newPaymentListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, oldest payment date first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			from, err := optionalDate(cmd, "from")
			if err != nil {
				return err
			}
			to, err := optionalDate(cmd, "to")
			if err != nil {
				return err
			}
			includeVoided, _ := cmd.Flags().GetBool("include-voided")
			limit, _ := cmd.Flags().GetInt("limit")

			params := dto.ListPaymentsParams{
				InvoiceID:     optionalString(cmd, "invoice"),
				CurrencyCode:  optionalString(cmd, "currency"),
				From:          from,
				To:            to,
				IncludeVoided: includeVoided,
				Limit:         limit,
				NextToken:     optionalString(cmd, "next-token"),
			}
			if m := optionalString(cmd, "method"); m != nil {
				method := domain.PaymentMethod(*m)
				params.Method = &method
			}
			if cmd.Flags().Changed("overdue") {
				overdue, _ := cmd.Flags().GetBool("overdue")
				params.Overdue = &overdue
			}

			resp, err := svc.Invoice.ListPayments(cmd.Context(), params, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().String("invoice", "", "Only payments applied to this invoice")
	cmd.Flags().String("method", "", "Only payments made with this method")
	cmd.Flags().Bool("overdue", false, "Only payments made after (true) or before (false) the due date")
	cmd.Flags().String("currency", "", "Only payments in this currency")
	cmd.Flags().String("from", "", "Earliest payment date, inclusive")
	cmd.Flags().String("to", "", "Latest payment date, exclusive")
	cmd.Flags().Bool("include-voided", false, "Include deleted payments")
	cmd.Flags().Int("limit", 20, "Page size, 1 to 100")
	cmd.Flags().String("next-token", "", "Token from the previous page")
	return cmd
}
