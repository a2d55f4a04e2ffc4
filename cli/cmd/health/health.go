package health

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/cli/helpers"
	"github.com/devopsblog/blog/pkg/client"
	"github.com/devopsblog/blog/pkg/config"
)

// NewCommand creates the health command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the health of a running blog API",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	c, err := client.New(&cfg.Client)
	if err != nil {
		return err
	}
	status, err := c.Health(ctx)
	if err != nil && !errors.Is(err, client.ErrUnhealthy) {
		return err
	}
	out := cmd.OutOrStdout()
	if helpers.DetectMode(cmd) == helpers.ModeJSON {
		if printErr := helpers.PrintJSON(out, status); printErr != nil {
			return printErr
		}
		return err
	}
	uptime := time.Duration(status.Uptime * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(out, "%s %s: %s\n", status.Service, status.Version, status.Message)
	fmt.Fprintf(out, "database: %s\nuptime:   %s\n", status.Database, uptime)
	return err
}
