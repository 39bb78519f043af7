package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	JSONOutput bool
}

// newApplyCommand creates the apply command.
func newApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <operations.json>",
		Short: "Apply a batch of write operations",
		Long: `Apply a JSON array of write operations in a single transaction.

Operations execute in the order given; effects are visible to later
operations in the same batch. If any operation fails the whole batch is
rolled back. Records added without an id are assigned a generated UUID
before the batch runs.`,
		Example: `  # Apply a batch from a file
  recordsql apply ops.json

  # Apply and print the resulting records as JSON
  recordsql apply ops.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output resulting records as JSON")

	return cmd
}

func runApply(cmd *cobra.Command, path string, opts *ApplyOptions) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read operations file: %w", err)
	}
	var ops []core.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return fmt.Errorf("failed to parse operations file %s: %w", path, err)
	}
	for i := range ops {
		if ops[i].Op == core.OpAddRecord && ops[i].Record != nil && ops[i].Record.ID == "" {
			ops[i].Record.ID = uuid.New().String()
		}
	}

	cc, cleanup, err := newCommandContext(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.ensureSchema(ctx); err != nil {
		return err
	}

	records, err := cc.proc.ApplyOperations(ctx, ops)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.JSONOutput {
		return renderRecordsJSON(out, records)
	}

	fmt.Fprintf(out, "Applied %d operations\n", len(ops))
	for i := range ops {
		if records[i] == nil {
			fmt.Fprintf(out, "  %2d. %-28s %s\n", i+1, ops[i].Op, ops[i].Target())
			continue
		}
		fmt.Fprintf(out, "  %2d. %-28s %s\n", i+1, ops[i].Op, records[i].Identity())
	}
	return nil
}
