package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/mwantia/gocard/internal/agent"
	"github.com/mwantia/gocard/pkg/db/migrations"
	"github.com/spf13/cobra"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the local database schema",
		Long:  "Show, apply or roll back the versioned schema migrations of the local store.",
	}

	cmd.AddCommand(NewMigrateStatusCommand())
	cmd.AddCommand(NewMigrateUpCommand())
	cmd.AddCommand(NewMigrateRollbackCommand())

	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *migrations.Migrator) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	s, err := agent.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s.Migrator())
}

func NewMigrateStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tAPPLIED\tDESCRIPTION")
				for _, s := range statuses {
					fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Description)
				}
				return w.Flush()
			})
		},
	}

	return cmd
}

func NewMigrateUpCommand() *cobra.Command {
	var to int

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				target := to
				if target <= 0 {
					target = m.Latest()
				}
				if err := m.MigrateTo(ctx, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %d\n", target)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "target version (default latest)")

	return cmd
}

func NewMigrateRollbackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				if err := m.Rollback(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back the last migration")
				return nil
			})
		},
	}

	return cmd
}
