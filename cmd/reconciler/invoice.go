package main

import (
	"github.com/spf13/cobra"

	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
)

func newInvoiceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and inspect invoices",
	}
	cmd.AddCommand(newInvoiceCreateCmd(a), newInvoiceShowCmd(a), newInvoiceHistoryCmd(a))
	return cmd
}

func newInvoiceCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a new invoice",
		Example: `  reconciler invoice create --number INV-001 --currency USD --total 100.00 --due-date 2024-06-30`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}

			number, _ := cmd.Flags().GetString("number")
			currency, _ := cmd.Flags().GetString("currency")
			total, _ := cmd.Flags().GetString("total")
			status, _ := cmd.Flags().GetString("status")
			rawDue, _ := cmd.Flags().GetString("due-date")
			due, err := parseDate("due-date", rawDue)
			if err != nil {
				return err
			}

			inv, err := svc.Invoice.CreateInvoice(cmd.Context(), dto.CreateInvoiceRequest{
				InvoiceNumber: number,
				CurrencyCode:  currency,
				TotalValue:    total,
				DueDate:       due,
				Status:        domain.InvoiceStatus(status),
			}, actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.ToInvoiceResponse(inv))
		},
	}

	cmd.Flags().String("number", "", "Invoice number, unique within the organization")
	cmd.Flags().String("currency", "", "ISO 4217 currency code")
	cmd.Flags().String("total", "", "Total value in major units, e.g. 100.00")
	cmd.Flags().String("due-date", "", "Due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("status", "", "Initial status: DRAFT or SENT (default SENT)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("due-date")
	return cmd
}

func newInvoiceShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its payments and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := svc.Invoice.GetInvoiceWithPayments(cmd.Context(), args[0], actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func newInvoiceHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <invoice-id>",
		Short: "List an invoice's audit trail, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.serviceContainer(cmd.Context())
			if err != nil {
				return err
			}
			events, err := svc.Invoice.ListHistory(cmd.Context(), args[0], actorFromFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.ToHistoryEventResponses(events))
		},
	}
}
