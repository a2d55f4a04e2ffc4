package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/engine/infra/postgres"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

// NewCommand creates the migrate command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().String("db-url", "", "PostgreSQL connection string; overrides the DB_* settings")
	cmd.AddCommand(upCmd(), statusCmd())
	return cmd
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			if err := postgres.ApplyMigrations(ctx, cfg.Database.DSN()); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			logger.FromContext(ctx).Info("Migrations applied")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			return postgres.MigrationStatus(ctx, cfg.Database.DSN(), cmd.OutOrStdout())
		},
	}
}
