/*
PURPOSE:
  Defines the root Cobra command for the wst-etc CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Every subcommand loads the same config and logger the same way.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/wst-etc/main.go
  - Calls: Child commands (serve, compute, list-configs, template)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/wst-etc/main.go
  - internal/config/config.go
*/

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wst-etc/internal/config"
	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	// logLevel overrides log_level from the config file
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "wst-etc",
		Short: "Web front end for the WST exposure time calculator",
		Long: `Serves the WST ETC form, runs SNR and exposure-time computations for the
selected instrument channels and renders the results as text, tables and charts.
Use 'serve --help' for the web server and 'compute --help' for one-off runs.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	defer output.Sync()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wst_etc.yaml or ./etc.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig loads the config, applies global flags and configures logging.
func loadConfig(format string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if format != "" {
		cfg.LogFormat = format
	}
	if err := output.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCalculator selects the ETC backend named in the config.
func newCalculator(cfg *config.Config) etc.Calculator {
	if cfg.Backend == config.BackendRemote {
		output.Logger.Infow("Using remote ETC backend", "url", cfg.BackendURL)
		return etc.NewRemote(cfg.BackendURL, cfg.RequestTimeout, cfg.MaxRetries, cfg.RetryDelay)
	}
	return etc.NewBuiltin()
}
