package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCommand creates the migrate command.
func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Synthesize tables for the schema document",
		Long: `Create the tables and join tables the schema document requires.

Safe to run repeatedly: tables that already exist are left untouched, so the
command is a no-op once storage matches the schema.`,
		Example: `  # Synthesize tables in the configured target
  recordsql migrate

  # Synthesize into a specific SQLite file
  recordsql migrate -t sqlite --database ./records.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc, cleanup, err := newCommandContext(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.ensureSchema(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema synchronized: %d types\n", len(cc.schema.Types))
			return nil
		},
	}
}
