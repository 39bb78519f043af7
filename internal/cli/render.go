package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// renderRecordTable prints records as a table. Columns are the union of the
// attribute names across the batch, plus an identity prefix and a compact
// relationships column for any embedded related identities.
func renderRecordTable(w io.Writer, records []*core.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(0 records)")
		return
	}

	attrSet := make(map[string]struct{})
	hasRels := false
	for _, rec := range records {
		for name := range rec.Attributes {
			attrSet[name] = struct{}{}
		}
		if len(rec.Relationships) > 0 {
			hasRels = true
		}
	}
	attrs := make([]string, 0, len(attrSet))
	for name := range attrSet {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"type", "id"}
	for _, name := range attrs {
		header = append(header, name)
	}
	if hasRels {
		header = append(header, "relationships")
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := table.Row{rec.Type, rec.ID}
		for _, name := range attrs {
			v, ok := rec.Attributes[name]
			if !ok || v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%v", v))
		}
		if hasRels {
			row = append(row, formatRelationships(rec))
		}
		t.AppendRow(row)
	}

	t.Render()
	fmt.Fprintf(w, "(%d records)\n", len(records))
}

// formatRelationships renders embedded related identities as
// "name=type:id", sorted by relationship name.
func formatRelationships(rec *core.Record) string {
	names := make([]string, 0, len(rec.Relationships))
	for name := range rec.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for _, name := range names {
		data := rec.Relationships[name]
		if data.Record == nil {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%s", name, data.Record)
	}
	return out
}

func renderRecordsJSON(w io.Writer, records []*core.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderResultsJSON(w io.Writer, results []core.QueryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
