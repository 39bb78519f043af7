package cli

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/recordsql/internal/config"
	"github.com/leapstack-labs/recordsql/internal/mapper"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// newSchemaCommand creates the schema command.
func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the compiled relational mappings",
		Long: `Compile the schema document and print how each record type maps onto
relational storage: tables, attribute columns and relationship strategies.

No connection is made; this inspects the schema document only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.LoadSchema(cfg.SchemaPath)
			if err != nil {
				return err
			}

			mappings, err := mapper.New(schema).All()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			cols := table.NewWriter()
			cols.SetOutputMirror(out)
			cols.SetStyle(table.StyleLight)
			cols.AppendHeader(table.Row{"type", "table", "attribute", "column"})
			for _, rm := range mappings {
				attrs := make([]string, 0, len(rm.Columns))
				for name := range rm.Columns {
					attrs = append(attrs, name)
				}
				sort.Strings(attrs)
				for _, name := range attrs {
					cols.AppendRow(table.Row{rm.Type, rm.Table, name, rm.Columns[name]})
				}
			}
			cols.Render()

			rels := table.NewWriter()
			rels.SetOutputMirror(out)
			rels.SetStyle(table.StyleLight)
			rels.AppendHeader(table.Row{"type", "relationship", "kind", "target", "storage"})
			count := 0
			for _, rm := range mappings {
				names := make([]string, 0, len(rm.Relationships))
				for name := range rm.Relationships {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					rel := rm.Relationships[name]
					rels.AppendRow(table.Row{rm.Type, name, rel.Kind, rel.Target, describeStorage(rel)})
					count++
				}
			}
			if count > 0 {
				fmt.Fprintln(out)
				rels.Render()
			}
			return nil
		},
	}
}

// describeStorage summarizes where a relationship's links live.
func describeStorage(rel *core.RelationMapping) string {
	switch rel.Strategy {
	case core.StrategyOwnedKey:
		return fmt.Sprintf("column %s", rel.KeyColumn)
	case core.StrategyTargetKey:
		return fmt.Sprintf("column %s.%s", rel.TargetTable, rel.TargetKeyColumn)
	case core.StrategyJoinTable:
		return fmt.Sprintf("join table %s", rel.JoinTable)
	}
	return string(rel.Strategy)
}
