package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/recordsql/internal/codec"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

func (p *Processor) executeQuery(ctx context.Context, tx *core.Tx, q *core.QueryExpression) (core.QueryResult, error) {
	p.logger.Debug("executing query", slog.String("op", string(q.Op)))

	switch q.Op {
	case core.QueryFindRecord:
		if q.Record == nil {
			return core.QueryResult{}, fmt.Errorf("find_record requires a record identity")
		}
		rec, err := p.readRecord(ctx, tx, *q.Record)
		if err != nil {
			return core.QueryResult{}, err
		}
		return core.QueryResult{Record: rec}, nil

	case core.QueryFindRecords:
		if len(q.Records) > 0 {
			recs, err := p.findRecordsByIdentity(ctx, tx, q.Records)
			if err != nil {
				return core.QueryResult{}, err
			}
			return core.QueryResult{Records: recs, Many: true}, nil
		}
		recs, err := p.findRecordsByType(ctx, tx, q)
		if err != nil {
			return core.QueryResult{}, err
		}
		return core.QueryResult{Records: recs, Many: true}, nil

	case core.QueryFindRelatedRecord:
		if q.Record == nil {
			return core.QueryResult{}, fmt.Errorf("find_related_record requires a record identity")
		}
		rec, err := p.findRelatedRecord(ctx, tx, *q.Record, q.Relationship)
		if err != nil {
			return core.QueryResult{}, err
		}
		return core.QueryResult{Record: rec}, nil

	case core.QueryFindRelatedRecords:
		if q.Record == nil {
			return core.QueryResult{}, fmt.Errorf("find_related_records requires a record identity")
		}
		recs, err := p.findRelatedRecords(ctx, tx, q)
		if err != nil {
			return core.QueryResult{}, err
		}
		return core.QueryResult{Records: recs, Many: true}, nil

	default:
		return core.QueryResult{}, &core.QueryExpressionError{Kind: "query", Specifier: q.Op}
	}
}

// findRecordsByType runs a full scan through the filter, sort and page
// pipeline.
func (p *Processor) findRecordsByType(ctx context.Context, tx *core.Tx, q *core.QueryExpression) ([]*core.Record, error) {
	rm, err := p.mapper.Mapping(q.Type)
	if err != nil {
		return nil, err
	}

	d := p.db.Dialect()
	base := fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(rm.Table))
	return p.runPipeline(ctx, tx, rm, base, nil, false, q)
}

// findRecordsByIdentity batch-fetches an explicit identity list. Rows are
// grouped by type, the result order follows the input list, and identities
// with no matching row are silently dropped.
func (p *Processor) findRecordsByIdentity(ctx context.Context, tx *core.Tx, ids []core.Identity) ([]*core.Record, error) {
	d := p.db.Dialect()

	byType := make(map[string][]string)
	order := make([]string, 0)
	for _, id := range ids {
		if _, seen := byType[id.Type]; !seen {
			order = append(order, id.Type)
		}
		byType[id.Type] = append(byType[id.Type], id.ID)
	}

	found := make(map[core.Identity]*core.Record)
	for _, typeName := range order {
		rm, err := p.mapper.Mapping(typeName)
		if err != nil {
			return nil, err
		}
		typeIDs := byType[typeName]
		args := make([]any, len(typeIDs))
		for i, id := range typeIDs {
			args[i] = id
		}
		query := fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s)",
			d.QuoteIdent(rm.Table), d.QuoteIdent("id"), d.Placeholders(1, len(typeIDs)))
		rows, err := p.queryRows(ctx, tx, query, args...)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec, err := p.codec.FromRow(rm, row)
			if err != nil {
				return nil, err
			}
			found[rec.Identity()] = rec
		}
	}

	records := make([]*core.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// findRelatedRecord resolves the parent (record-not-found if absent), then
// fetches the linked row if any.
func (p *Processor) findRelatedRecord(ctx context.Context, tx *core.Tx, parent core.Identity, relName string) (*core.Record, error) {
	rm, row, err := p.requireRow(ctx, tx, parent)
	if err != nil {
		return nil, err
	}
	rel, ok := rm.Relationship(relName)
	if !ok {
		return nil, fmt.Errorf("unknown relationship %q on type %q", relName, parent.Type)
	}
	if rel.Strategy != core.StrategyOwnedKey {
		return nil, fmt.Errorf("relationship %q on type %q is not single-valued", relName, parent.Type)
	}

	key := row[rel.KeyColumn]
	if key == nil {
		return nil, nil
	}

	targetMapping, err := p.mapper.Mapping(rel.Target)
	if err != nil {
		return nil, err
	}
	targetRow, err := p.fetchRow(ctx, tx, targetMapping, codec.AsString(key))
	if err != nil {
		return nil, err
	}
	if targetRow == nil {
		// Dangling key: removals do not cascade-clear references.
		return nil, nil
	}
	return p.codec.FromRow(targetMapping, targetRow)
}

// findRelatedRecords resolves the parent (record-not-found if absent), then
// runs the filter, sort and page pipeline scoped to the linked rows.
func (p *Processor) findRelatedRecords(ctx context.Context, tx *core.Tx, q *core.QueryExpression) ([]*core.Record, error) {
	parent := *q.Record
	if _, _, err := p.requireRow(ctx, tx, parent); err != nil {
		return nil, err
	}
	_, rel, err := p.collectionRelationship(parent.Type, q.Relationship)
	if err != nil {
		return nil, err
	}
	targetMapping, err := p.mapper.Mapping(rel.Target)
	if err != nil {
		return nil, err
	}

	d := p.db.Dialect()
	var base string
	switch rel.Strategy {
	case core.StrategyTargetKey:
		base = fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
			d.QuoteIdent(rel.TargetTable), d.QuoteIdent(rel.TargetKeyColumn), d.FormatPlaceholder(1))
	case core.StrategyJoinTable:
		base = fmt.Sprintf("SELECT * FROM %s WHERE %s IN (SELECT %s FROM %s WHERE %s = %s)",
			d.QuoteIdent(rel.TargetTable), d.QuoteIdent("id"),
			d.QuoteIdent(rel.JoinKeyColumn), d.QuoteIdent(rel.JoinTable),
			d.QuoteIdent(rel.JoinParentColumn), d.FormatPlaceholder(1))
	}

	return p.runPipeline(ctx, tx, targetMapping, base, []any{parent.ID}, true, q)
}

// runPipeline appends the compiled filter/sort/page clauses to a base query
// and decodes the resulting rows.
func (p *Processor) runPipeline(ctx context.Context, tx *core.Tx, rm *core.RelationalMapping, base string, args []any, hasWhere bool, q *core.QueryExpression) ([]*core.Record, error) {
	clause, pipelineArgs, err := p.compilePipeline(rm, len(args), hasWhere, q)
	if err != nil {
		return nil, err
	}
	args = append(args, pipelineArgs...)

	rows, err := p.queryRows(ctx, tx, base+clause, args...)
	if err != nil {
		return nil, err
	}

	records := make([]*core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := p.codec.FromRow(rm, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
