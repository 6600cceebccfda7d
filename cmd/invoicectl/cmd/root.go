package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/invoicing-service/internal/config"
	"github.com/ridwanfathin/invoicing-service/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Operator CLI for the invoicing service",
	Long: `invoicectl runs maintenance tasks against the invoicing service:
database migrations, offline totals previews, access tokens and user accounts.

Configuration is read from the environment and .env, the same way the
server reads it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the service configuration and points the logger at stderr
// so command output stays clean
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	if err := logger.Setup(logCfg); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}
