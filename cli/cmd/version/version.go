package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/cli/helpers"
	"github.com/devopsblog/blog/pkg/version"
)

// NewCommand creates the version command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if helpers.DetectMode(cmd) == helpers.ModeJSON {
				return helpers.PrintJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
}
