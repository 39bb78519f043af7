// Package processor executes write operations and query expressions against
// relational storage using the compiled mappings and the record codec.
//
// Each caller-issued batch runs inside exactly one transaction: operations
// execute strictly in the order supplied, effects are visible to later
// operations in the same batch, and the first failure rolls the whole batch
// back. The processor adds no locking or retry of its own; cross-batch
// isolation is whatever the underlying engine provides.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/recordsql/internal/codec"
	"github.com/leapstack-labs/recordsql/internal/mapper"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Processor dispatches operations and queries for one opened connection.
// Its mapping cache lives and dies with the instance; it is never a global
// singleton.
type Processor struct {
	db     adapter.Adapter
	mapper *mapper.Mapper
	codec  *codec.Codec
	logger *slog.Logger
}

// New creates a processor over an adapter and a schema registry.
// If logger is nil, a discard logger is used.
func New(db adapter.Adapter, schema *core.Schema, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		db:     db,
		mapper: mapper.New(schema),
		codec:  codec.New(schema),
		logger: logger,
	}
}

// Mapper exposes the processor's mapper, mainly for the migration
// synthesizer which must share the memoized mappings.
func (p *Processor) Mapper() *mapper.Mapper {
	return p.mapper
}

// ApplyOperations executes a batch of write operations inside one
// transaction. The returned slice is aligned with the input: add and update
// style operations yield the record re-read from storage, removals yield
// nil. On the first failure the transaction is rolled back and the error
// returned; there is no partial commit and no automatic retry.
func (p *Processor) ApplyOperations(ctx context.Context, ops []core.Operation) ([]*core.Record, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*core.Record, len(ops))
	for i := range ops {
		rec, err := p.applyOperation(ctx, tx, &ops[i])
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		results[i] = rec
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return results, nil
}

// ExecuteQueries executes a batch of query expressions inside one
// transaction and returns one result per expression.
func (p *Processor) ExecuteQueries(ctx context.Context, queries []core.QueryExpression) ([]core.QueryResult, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]core.QueryResult, len(queries))
	for i := range queries {
		res, err := p.executeQuery(ctx, tx, &queries[i])
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		results[i] = res
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit query batch: %w", err)
	}
	return results, nil
}

func (p *Processor) applyOperation(ctx context.Context, tx *core.Tx, op *core.Operation) (*core.Record, error) {
	p.logger.Debug("applying operation", slog.String("op", string(op.Op)), slog.String("target", op.Target().String()))

	switch op.Op {
	case core.OpAddRecord:
		return p.addRecord(ctx, tx, op.Record)
	case core.OpUpdateRecord:
		return p.updateRecord(ctx, tx, op.Record)
	case core.OpRemoveRecord:
		return nil, p.removeRecord(ctx, tx, op.Target())
	case core.OpReplaceAttribute:
		return p.replaceAttribute(ctx, tx, op.Target(), op.Attribute, op.Value)
	case core.OpReplaceRelatedRecord:
		return p.replaceRelatedRecord(ctx, tx, op.Target(), op.Relationship, op.RelatedRecord)
	case core.OpReplaceRelatedRecords:
		return p.replaceRelatedRecordsOp(ctx, tx, op.Target(), op.Relationship, op.RelatedRecords)
	case core.OpAddToRelatedRecords:
		return p.addToRelatedRecords(ctx, tx, op.Target(), op.Relationship, op.RelatedRecord)
	case core.OpRemoveFromRelatedRecords:
		return p.removeFromRelatedRecords(ctx, tx, op.Target(), op.Relationship, op.RelatedRecord)
	default:
		return nil, fmt.Errorf("unsupported operation %q", op.Op)
	}
}
