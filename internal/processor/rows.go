package processor

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// queryRows runs a query inside the batch transaction and drains the result
// into generic column/value maps.
func (p *Processor) queryRows(ctx context.Context, tx *core.Tx, query string, args ...any) ([]map[string]any, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// fetchRow fetches one row by id, or nil when absent.
func (p *Processor) fetchRow(ctx context.Context, tx *core.Tx, rm *core.RelationalMapping, id string) (map[string]any, error) {
	d := p.db.Dialect()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		d.QuoteIdent(rm.Table), d.QuoteIdent("id"), d.FormatPlaceholder(1))
	rows, err := p.queryRows(ctx, tx, query, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// requireRow resolves an identity to its mapping and stored row, failing
// with a record-not-found condition when the row is absent.
func (p *Processor) requireRow(ctx context.Context, tx *core.Tx, id core.Identity) (*core.RelationalMapping, map[string]any, error) {
	rm, err := p.mapper.Mapping(id.Type)
	if err != nil {
		return nil, nil, err
	}
	row, err := p.fetchRow(ctx, tx, rm, id.ID)
	if err != nil {
		return nil, nil, err
	}
	if row == nil {
		return nil, nil, core.NewRecordNotFound(id)
	}
	return rm, row, nil
}

// readRecord is the strict identity fetch: record-not-found when absent.
func (p *Processor) readRecord(ctx context.Context, tx *core.Tx, id core.Identity) (*core.Record, error) {
	rm, row, err := p.requireRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return p.codec.FromRow(rm, row)
}

// relationship resolves a type/relationship pair to the owning mapping and
// the compiled relation mapping.
func (p *Processor) relationship(typeName, relName string) (*core.RelationalMapping, *core.RelationMapping, error) {
	rm, err := p.mapper.Mapping(typeName)
	if err != nil {
		return nil, nil, err
	}
	rel, ok := rm.Relationship(relName)
	if !ok {
		return nil, nil, fmt.Errorf("unknown relationship %q on type %q", relName, typeName)
	}
	return rm, rel, nil
}
