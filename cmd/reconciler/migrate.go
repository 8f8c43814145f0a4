package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/invoice_reconciler/internal/platform/config"
	"github.com/SscSPs/invoice_reconciler/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
	}

	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires STORE=%s", config.StorePostgres)
			}
			m, err := database.NewMigrator(a.cfg.DatabaseURL, a.logger)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			if down {
				return m.Down()
			}
			return m.Up()
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back every migration", Args: cobra.NoArgs, RunE: run(true)},
	)
	return cmd
}
