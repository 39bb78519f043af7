// Package cli provides the command-line interface for RecordSQL.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/recordsql/internal/config"

	// Register the built-in storage adapters.
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/sqlite"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recordsql",
		Short: "RecordSQL - typed records on relational storage",
		Long: `RecordSQL maps a declarative schema of typed records, attributes and
relationships onto relational storage.

It synthesizes the tables the schema requires, applies transactional batches
of write operations, and answers query expressions over the stored records.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = newLogger(cfg)
			if cfg.Verbose {
				fmt.Fprintf(os.Stderr, "Using target: %s (%s)\n", cfg.Target.Type, cfg.Target.Database)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Typed records on relational storage
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./recordsql.yaml)")
	rootCmd.PersistentFlags().StringP("target", "t", "", "Storage target type (sqlite, postgres, duckdb)")
	rootCmd.PersistentFlags().String("database", "", "Database path or name (empty for in-memory)")
	rootCmd.PersistentFlags().String("schema", "", "Path to the schema document (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Register completion for target flag
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the process logger from the loaded configuration.
// Verbose forces debug regardless of the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
