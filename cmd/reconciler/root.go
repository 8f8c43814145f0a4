package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
)

const dateLayout = "2006-01-02"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "reconciler",
		Short: "Invoice payment reconciliation engine",
		Long: `reconciler records payments against invoices and keeps each invoice's
paid amount, amount due and status consistent with its payments.

Every command runs as the actor named by --user, --org and --tenant.
Store selection and tuning come from the environment (STORE, PGSQL_URL,
COMMAND_TIMEOUT, LOCK_TIMEOUT, RETRY_MAX_ATTEMPTS).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("user", "", "Acting user ID")
	root.PersistentFlags().String("org", "", "Acting organization ID")
	root.PersistentFlags().String("tenant", "", "Acting tenant ID")

	root.AddCommand(newMigrateCmd(a), newInvoiceCmd(a), newPaymentCmd(a))
	return root
}

func actorFromFlags(cmd *cobra.Command) domain.Actor {
	user, _ := cmd.Flags().GetString("user")
	org, _ := cmd.Flags().GetString("org")
	tenant, _ := cmd.Flags().GetString("tenant")
	return domain.Actor{UserID: user, OrganizationID: org, TenantID: tenant}
}

// parseDate accepts a plain date (midnight UTC) or an RFC 3339 timestamp.
func parseDate(flag, value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD or RFC 3339, got %q", apperrors.ErrValidation, flag, value)
	}
	return t.UTC(), nil
}

// optionalDate returns nil when the flag was not given.
func optionalDate(cmd *cobra.Command, flag string) (*time.Time, error) {
	if !cmd.Flags().Changed(flag) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(flag)
	t, err := parseDate(flag, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalString(cmd *cobra.Command, flag string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	v, _ := cmd.Flags().GetString(flag)
	return &v
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
