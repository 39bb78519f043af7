package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/recordsql/internal/codec"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// addRecord inserts the row, establishes any links present in the payload
// (creating stub rows for payload identities that do not exist yet), and
// returns the record re-read from storage so server-assigned defaults are
// picked up.
func (p *Processor) addRecord(ctx context.Context, tx *core.Tx, rec *core.Record) (*core.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("add_record requires a record payload")
	}
	rm, err := p.mapper.Mapping(rec.Type)
	if err != nil {
		return nil, err
	}

	row, err := p.codec.ToRow(rm, rec)
	if err != nil {
		return nil, err
	}
	if err := p.insertRow(ctx, tx, rm.Table, row); err != nil {
		return nil, err
	}

	for relName, data := range rec.Relationships {
		rel, ok := rm.Relationship(relName)
		if !ok {
			continue
		}
		switch rel.Strategy {
		case core.StrategyOwnedKey:
			// The key column itself was written with the row.
			if data.Record != nil {
				if err := p.ensureStub(ctx, tx, *data.Record); err != nil {
					return nil, err
				}
			}
		default:
			for _, related := range data.Records {
				if err := p.ensureStub(ctx, tx, related); err != nil {
					return nil, err
				}
				if err := p.link(ctx, tx, rec.ID, rel, related.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	return p.readRecord(ctx, tx, rec.Identity())
}

// updateRecord merges attributes (only payload keys overwrite stored
// values) and replaces the full related set for every relationship present
// in the payload. Omitted keys are left untouched.
func (p *Processor) updateRecord(ctx context.Context, tx *core.Tx, rec *core.Record) (*core.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("update_record requires a record payload")
	}
	rm, _, err := p.requireRow(ctx, tx, rec.Identity())
	if err != nil {
		return nil, err
	}

	row, err := p.codec.ToRow(rm, rec)
	if err != nil {
		return nil, err
	}
	delete(row, codec.ColumnID)
	if err := p.updateRow(ctx, tx, rm.Table, rec.ID, row); err != nil {
		return nil, err
	}

	for relName, data := range rec.Relationships {
		rel, ok := rm.Relationship(relName)
		if !ok || rel.Strategy == core.StrategyOwnedKey {
			// Owned keys were written with the row update.
			continue
		}
		if err := p.replaceLinks(ctx, tx, rec.ID, rel, data.Records); err != nil {
			return nil, err
		}
	}

	return p.readRecord(ctx, tx, rec.Identity())
}

// removeRecord deletes the row. Foreign keys on other rows that reference
// it are not cleared; dangling references are possible.
func (p *Processor) removeRecord(ctx context.Context, tx *core.Tx, id core.Identity) error {
	rm, _, err := p.requireRow(ctx, tx, id)
	if err != nil {
		return err
	}
	d := p.db.Dialect()
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.QuoteIdent(rm.Table), d.QuoteIdent("id"), d.FormatPlaceholder(1))
	if _, err := tx.ExecContext(ctx, stmt, id.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// replaceAttribute is a single-column patch.
func (p *Processor) replaceAttribute(ctx context.Context, tx *core.Tx, id core.Identity, attr string, value any) (*core.Record, error) {
	rm, _, err := p.requireRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	attrDef, ok := p.mapper.Schema().Attribute(id.Type, attr)
	if !ok {
		return nil, fmt.Errorf("unknown attribute %q on type %q", attr, id.Type)
	}
	encoded, err := p.codec.EncodeAttribute(attrDef.Type, value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s.%s: %w", id.Type, attr, err)
	}
	column := rm.Columns[attr]
	if err := p.updateRow(ctx, tx, rm.Table, id.ID, map[string]any{column: encoded}); err != nil {
		return nil, err
	}
	return p.readRecord(ctx, tx, id)
}

// replaceRelatedRecord sets a single-valued relationship's key to the given
// identity, or clears it to null.
func (p *Processor) replaceRelatedRecord(ctx context.Context, tx *core.Tx, id core.Identity, relName string, related *core.Identity) (*core.Record, error) {
	rm, _, err := p.requireRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	rel, ok := rm.Relationship(relName)
	if !ok {
		return nil, fmt.Errorf("unknown relationship %q on type %q", relName, id.Type)
	}
	if rel.Strategy != core.StrategyOwnedKey {
		return nil, fmt.Errorf("relationship %q on type %q is not single-valued", relName, id.Type)
	}

	var key any
	if related != nil {
		key = related.ID
	}
	if err := p.updateRow(ctx, tx, rm.Table, id.ID, map[string]any{rel.KeyColumn: key}); err != nil {
		return nil, err
	}
	return p.readRecord(ctx, tx, id)
}

// replaceRelatedRecordsOp replaces a collection-valued related set with the
// requested one by applying the symmetric difference.
func (p *Processor) replaceRelatedRecordsOp(ctx context.Context, tx *core.Tx, id core.Identity, relName string, related []core.Identity) (*core.Record, error) {
	if _, _, err := p.requireRow(ctx, tx, id); err != nil {
		return nil, err
	}
	_, rel, err := p.collectionRelationship(id.Type, relName)
	if err != nil {
		return nil, err
	}
	return nil, p.replaceLinks(ctx, tx, id.ID, rel, related)
}

// addToRelatedRecords adds one link. Idempotent: an already-linked record
// is a no-op.
func (p *Processor) addToRelatedRecords(ctx context.Context, tx *core.Tx, id core.Identity, relName string, related *core.Identity) (*core.Record, error) {
	if related == nil {
		return nil, fmt.Errorf("add_to_related_records requires a related record")
	}
	if _, _, err := p.requireRow(ctx, tx, id); err != nil {
		return nil, err
	}
	_, rel, err := p.collectionRelationship(id.Type, relName)
	if err != nil {
		return nil, err
	}

	if rel.Strategy == core.StrategyJoinTable {
		linked, err := p.linked(ctx, tx, id.ID, rel, related.ID)
		if err != nil {
			return nil, err
		}
		if linked {
			return nil, nil
		}
	}
	return nil, p.link(ctx, tx, id.ID, rel, related.ID)
}

// removeFromRelatedRecords removes one link. Idempotent: removing an absent
// link is a no-op.
func (p *Processor) removeFromRelatedRecords(ctx context.Context, tx *core.Tx, id core.Identity, relName string, related *core.Identity) (*core.Record, error) {
	if related == nil {
		return nil, fmt.Errorf("remove_from_related_records requires a related record")
	}
	if _, _, err := p.requireRow(ctx, tx, id); err != nil {
		return nil, err
	}
	_, rel, err := p.collectionRelationship(id.Type, relName)
	if err != nil {
		return nil, err
	}
	return nil, p.unlink(ctx, tx, id.ID, rel, related.ID)
}

// --- shared write plumbing ---

func (p *Processor) collectionRelationship(typeName, relName string) (*core.RelationalMapping, *core.RelationMapping, error) {
	rm, rel, err := p.relationship(typeName, relName)
	if err != nil {
		return nil, nil, err
	}
	if rel.Strategy == core.StrategyOwnedKey {
		return nil, nil, fmt.Errorf("relationship %q on type %q is not collection-valued", relName, typeName)
	}
	return rm, rel, nil
}

// insertRow inserts a column/value map with deterministic column order.
func (p *Processor) insertRow(ctx context.Context, tx *core.Tx, table string, row map[string]any) error {
	d := p.db.Dialect()

	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdent(col)
		args[i] = row[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), d.Placeholders(1, len(columns)))
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// updateRow patches the given columns on one row and touches updated_at
// server-side.
func (p *Processor) updateRow(ctx context.Context, tx *core.Tx, table, id string, row map[string]any) error {
	d := p.db.Dialect()

	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(col), d.FormatPlaceholder(i+1)))
		args = append(args, row[col])
	}
	sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent("updated_at"), d.CurrentTimestamp))
	args = append(args, id)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteIdent(table), strings.Join(sets, ", "), d.QuoteIdent("id"), d.FormatPlaceholder(len(columns)+1))
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// ensureStub inserts a bare identity row when the identity has no stored
// row yet. Used for linked rows reachable through an add_record payload
// graph.
func (p *Processor) ensureStub(ctx context.Context, tx *core.Tx, id core.Identity) error {
	rm, err := p.mapper.Mapping(id.Type)
	if err != nil {
		return err
	}
	row, err := p.fetchRow(ctx, tx, rm, id.ID)
	if err != nil {
		return err
	}
	if row != nil {
		return nil
	}
	return p.insertRow(ctx, tx, rm.Table, map[string]any{codec.ColumnID: id.ID})
}

// currentRelatedIDs returns the ids currently linked through a
// collection-valued relationship.
func (p *Processor) currentRelatedIDs(ctx context.Context, tx *core.Tx, parentID string, rel *core.RelationMapping) ([]string, error) {
	d := p.db.Dialect()

	var query string
	switch rel.Strategy {
	case core.StrategyTargetKey:
		query = fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
			d.QuoteIdent("id"), d.QuoteIdent(rel.TargetTable),
			d.QuoteIdent(rel.TargetKeyColumn), d.FormatPlaceholder(1))
	case core.StrategyJoinTable:
		query = fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
			d.QuoteIdent(rel.JoinKeyColumn), d.QuoteIdent(rel.JoinTable),
			d.QuoteIdent(rel.JoinParentColumn), d.FormatPlaceholder(1))
	default:
		return nil, fmt.Errorf("relationship is not collection-valued")
	}

	rows, err := p.queryRows(ctx, tx, query, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			if v != nil {
				ids = append(ids, codec.AsString(v))
			}
		}
	}
	return ids, nil
}

// replaceLinks applies the symmetric difference between the current and the
// requested related set: unlink entries no longer present, link entries
// newly present, leave unchanged entries alone.
func (p *Processor) replaceLinks(ctx context.Context, tx *core.Tx, parentID string, rel *core.RelationMapping, requested []core.Identity) error {
	current, err := p.currentRelatedIDs(ctx, tx, parentID, rel)
	if err != nil {
		return err
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	requestedSet := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		requestedSet[id.ID] = struct{}{}
	}

	for _, id := range current {
		if _, keep := requestedSet[id]; !keep {
			if err := p.unlink(ctx, tx, parentID, rel, id); err != nil {
				return err
			}
		}
	}
	for _, id := range requested {
		if _, have := currentSet[id.ID]; !have {
			if err := p.link(ctx, tx, parentID, rel, id.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// link establishes one collection link.
func (p *Processor) link(ctx context.Context, tx *core.Tx, parentID string, rel *core.RelationMapping, targetID string) error {
	d := p.db.Dialect()
	switch rel.Strategy {
	case core.StrategyTargetKey:
		stmt := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
			d.QuoteIdent(rel.TargetTable),
			d.QuoteIdent(rel.TargetKeyColumn), d.FormatPlaceholder(1),
			d.QuoteIdent("id"), d.FormatPlaceholder(2))
		if _, err := tx.ExecContext(ctx, stmt, parentID, targetID); err != nil {
			return fmt.Errorf("failed to link %s: %w", targetID, err)
		}
	case core.StrategyJoinTable:
		stmt := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s)",
			d.QuoteIdent(rel.JoinTable),
			d.QuoteIdent(rel.JoinParentColumn), d.QuoteIdent(rel.JoinKeyColumn),
			d.Placeholders(1, 2))
		if _, err := tx.ExecContext(ctx, stmt, parentID, targetID); err != nil {
			return fmt.Errorf("failed to link %s: %w", targetID, err)
		}
	default:
		return fmt.Errorf("relationship is not collection-valued")
	}
	return nil
}

// unlink removes one collection link.
func (p *Processor) unlink(ctx context.Context, tx *core.Tx, parentID string, rel *core.RelationMapping, targetID string) error {
	d := p.db.Dialect()
	switch rel.Strategy {
	case core.StrategyTargetKey:
		stmt := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = %s AND %s = %s",
			d.QuoteIdent(rel.TargetTable), d.QuoteIdent(rel.TargetKeyColumn),
			d.QuoteIdent("id"), d.FormatPlaceholder(1),
			d.QuoteIdent(rel.TargetKeyColumn), d.FormatPlaceholder(2))
		if _, err := tx.ExecContext(ctx, stmt, targetID, parentID); err != nil {
			return fmt.Errorf("failed to unlink %s: %w", targetID, err)
		}
	case core.StrategyJoinTable:
		stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
			d.QuoteIdent(rel.JoinTable),
			d.QuoteIdent(rel.JoinParentColumn), d.FormatPlaceholder(1),
			d.QuoteIdent(rel.JoinKeyColumn), d.FormatPlaceholder(2))
		if _, err := tx.ExecContext(ctx, stmt, parentID, targetID); err != nil {
			return fmt.Errorf("failed to unlink %s: %w", targetID, err)
		}
	default:
		return fmt.Errorf("relationship is not collection-valued")
	}
	return nil
}

// linked reports whether a join-table link already exists.
func (p *Processor) linked(ctx context.Context, tx *core.Tx, parentID string, rel *core.RelationMapping, targetID string) (bool, error) {
	d := p.db.Dialect()
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s AND %s = %s",
		d.QuoteIdent(rel.JoinTable),
		d.QuoteIdent(rel.JoinParentColumn), d.FormatPlaceholder(1),
		d.QuoteIdent(rel.JoinKeyColumn), d.FormatPlaceholder(2))
	rows, err := p.queryRows(ctx, tx, query, parentID, targetID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
