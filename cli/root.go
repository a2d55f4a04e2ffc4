package cli

import (
	"github.com/spf13/cobra"

	configcmd "github.com/devopsblog/blog/cli/cmd/config"
	"github.com/devopsblog/blog/cli/cmd/health"
	"github.com/devopsblog/blog/cli/cmd/migrate"
	"github.com/devopsblog/blog/cli/cmd/posts"
	"github.com/devopsblog/blog/cli/cmd/serve"
	"github.com/devopsblog/blog/cli/cmd/version"
	"github.com/devopsblog/blog/cli/helpers"
)

// RootCmd builds the blog command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blog",
		Short:         "Personal blog API server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupRuntime(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String(configFlag, "", "Path to a YAML configuration file")
	flags.String(envFileFlag, defaultEnvFile, "Path to a .env file loaded before reading the environment")
	flags.String(logLevelFlag, "", "Log level (debug, info, warn, error, disabled)")
	flags.Bool(logJSONFlag, false, "Emit logs as JSON")
	flags.String(helpers.FormatFlag, string(helpers.ModeText), "Output format (text, json)")
	flags.String(apiURLFlag, "", "Base URL of the blog API used by client commands")

	root.AddCommand(
		serve.NewCommand(),
		migrate.NewCommand(),
		posts.NewCommand(),
		health.NewCommand(),
		configcmd.NewCommand(),
		version.NewCommand(),
	)
	return root
}
