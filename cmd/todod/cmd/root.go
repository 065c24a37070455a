// Package cmd implements the todod commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/internal/config"
	"github.com/gobeyondidentity/puretodo/internal/version"
)

var (
	// Global flags
	configPath string
	dbPath     string
	logLevel   string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "todod",
	Short: "Multi-user todo list server",
	Long: `todod serves the puretodo JSON API backed by a SQLite database.

Configuration is read from --config (or TODO_CONFIG), then TODO_*
environment variables, then command-line flags.

Getting started:
  export TODO_TOKEN_SECRET=$(openssl rand -hex 32)
  todod setup alice --name "Alice"
  todod serve`,
	Version:      version.Full(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		logger = cfg.NewLogger(os.Stderr)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "todod", version.Full())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: $XDG_DATA_HOME/puretodo/puretodo.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
