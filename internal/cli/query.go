package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
}

// newQueryCommand creates the query command.
func newQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <queries.json>",
		Short: "Execute a batch of query expressions",
		Long: `Execute a JSON array of query expressions and print the results.

Collection queries support attribute filters, composed sort keys and
offset/limit paging; all run in a single read transaction.`,
		Example: `  # Run queries and print results as tables
  recordsql query queries.json

  # Run queries with JSON output
  recordsql query queries.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format (table, json)")

	return cmd
}

func runQuery(cmd *cobra.Command, path string, opts *QueryOptions) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read query file: %w", err)
	}
	var queries []core.QueryExpression
	if err := json.Unmarshal(data, &queries); err != nil {
		return fmt.Errorf("failed to parse query file %s: %w", path, err)
	}

	cc, cleanup, err := newCommandContext(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.ensureSchema(ctx); err != nil {
		return err
	}

	results, err := cc.proc.ExecuteQueries(ctx, queries)
	if err != nil {
		return fmt.Errorf("query batch failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return renderResultsJSON(out, results)
	}

	for i, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(out, "Query %d (%s):\n", i+1, queries[i].Op)
		}
		if res.Many {
			renderRecordTable(out, res.Records)
			continue
		}
		if res.Record == nil {
			fmt.Fprintln(out, "(no record)")
			continue
		}
		renderRecordTable(out, []*core.Record{res.Record})
	}
	return nil
}
