package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/cli/helpers"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const (
	configFlag     = "config"
	envFileFlag    = "env-file"
	logLevelFlag   = "log-level"
	logJSONFlag    = "log-json"
	apiURLFlag     = "api-url"
	defaultEnvFile = ".env"
)

// flagPaths maps command flags onto configuration keys. Only flags the user
// set explicitly override other sources.
var flagPaths = map[string]string{
	logLevelFlag: "runtime.log_level",
	logJSONFlag:  "runtime.log_json",
	apiURLFlag:   "client.base_url",
	"host":       "server.host",
	"port":       "server.port",
	"db-url":     "database.conn_string",
}

// setupRuntime loads the env file and configuration, installs the logger and
// attaches both to the command context.
func setupRuntime(cmd *cobra.Command) error {
	format, err := cmd.Flags().GetString(helpers.FormatFlag)
	if err == nil {
		if err := helpers.ValidateMode(format); err != nil {
			return err
		}
	}
	if err := loadEnvFile(cmd); err != nil {
		return err
	}
	sources, err := configSources(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	svc := config.NewService()
	cfg, err := svc.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.Setup(cmd.ErrOrStderr(), cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, false)
	ctx = config.ContextWithConfig(ctx, cfg)
	ctx = helpers.ContextWithSources(ctx, svc)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "environment", cfg.Runtime.Environment, "command", cmd.Name())
	return nil
}

// loadEnvFile loads variables from the env file without overriding the
// process environment. A missing default file is ignored.
func loadEnvFile(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(envFileFlag)
	if err != nil || path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed(envFileFlag) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func configSources(cmd *cobra.Command) ([]config.Source, error) {
	var sources []config.Source
	if path, err := cmd.Flags().GetString(configFlag); err == nil && path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file %s: %w", path, statErr)
		}
		sources = append(sources, config.NewYAMLProvider(path))
	}
	overrides := make(map[string]any)
	for name, path := range flagPaths {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		overrides[path] = flag.Value.String()
	}
	if len(overrides) > 0 {
		sources = append(sources, config.NewCLIProvider(overrides))
	}
	return sources, nil
}
