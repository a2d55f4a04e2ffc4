package serve

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/engine/infra/server"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const productionEnvironment = "production"

// NewCommand creates the serve command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Run the blog API server",
		Long: "Initialize the database (creating and seeding the posts table when needed) " +
			"and serve the HTTP API until interrupted.",
		Args: cobra.NoArgs,
		RunE: run,
	}
	cmd.Flags().String("host", "", "Listen host")
	cmd.Flags().Int("port", 0, "Listen port")
	cmd.Flags().String("db-url", "", "PostgreSQL connection string; overrides the DB_* settings")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg.Runtime.Environment == productionEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.FromContext(ctx)
	log.Info("Starting blog server",
		"address", cfg.Server.Address(),
		"environment", cfg.Runtime.Environment,
		"version", cfg.Service.Version,
	)
	if err := server.NewServer(cfg).Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
