// Package migrate derives and creates the physical tables implied by the
// compiled relational mappings. Creation is idempotent at table granularity:
// an existing table is left untouched, columns are never altered.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/recordsql/internal/codec"
	"github.com/leapstack-labs/recordsql/internal/mapper"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Synthesizer creates the physical schema for one mapper/adapter pair.
type Synthesizer struct {
	db     adapter.Adapter
	mapper *mapper.Mapper
	logger *slog.Logger
}

// New creates a migration synthesizer.
// If logger is nil, a discard logger is used.
func New(db adapter.Adapter, m *mapper.Mapper, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{db: db, mapper: m, logger: logger}
}

// EnsureSchema creates every table the schema registry implies. Per-type
// tables are created first (concurrently; cross-table creation is not
// atomic, a crash can leave a partially-created schema), then the join
// tables collected from all mappings, deduplicated by name.
func (s *Synthesizer) EnsureSchema(ctx context.Context) error {
	mappings, err := s.mapper.All()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, rm := range mappings {
		g.Go(func() error {
			return s.ensureTypeTable(gctx, rm)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Both sides of a collection/collection relationship compile to the
	// same join-table name, so dedup before creating.
	joins := make(map[string]*core.RelationMapping)
	for _, rm := range mappings {
		for _, rel := range rm.Relationships {
			if rel.Strategy == core.StrategyJoinTable {
				joins[rel.JoinTable] = rel
			}
		}
	}
	names := make([]string, 0, len(joins))
	for name := range joins {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.ensureJoinTable(ctx, joins[name]); err != nil {
			return err
		}
	}
	return nil
}

// EnsureTable creates the table for one record type if it does not exist.
func (s *Synthesizer) EnsureTable(ctx context.Context, typeName string) error {
	rm, err := s.mapper.Mapping(typeName)
	if err != nil {
		return err
	}
	return s.ensureTypeTable(ctx, rm)
}

func (s *Synthesizer) ensureTypeTable(ctx context.Context, rm *core.RelationalMapping) error {
	exists, err := s.db.TableExists(ctx, rm.Table)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("table exists, skipping", slog.String("table", rm.Table))
		return nil
	}

	stmt := s.createTableSQL(rm)
	s.logger.Debug("creating table", slog.String("table", rm.Table))
	if err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", rm.Table, err)
	}
	return nil
}

// createTableSQL renders the CREATE TABLE statement for a type: primary key
// id, server-assigned timestamps, one column per declared attribute and one
// nullable key column per owned-foreign-key relationship.
func (s *Synthesizer) createTableSQL(rm *core.RelationalMapping) string {
	d := s.db.Dialect()
	idType := d.ColumnType(core.AttributeString)

	defs := []string{
		fmt.Sprintf("%s %s PRIMARY KEY", d.QuoteIdent(codec.ColumnID), idType),
		fmt.Sprintf("%s %s DEFAULT %s", d.QuoteIdent(codec.ColumnCreatedAt), d.TimestampType, d.CurrentTimestamp),
		fmt.Sprintf("%s %s DEFAULT %s", d.QuoteIdent(codec.ColumnUpdatedAt), d.TimestampType, d.CurrentTimestamp),
	}

	def, _ := s.mapper.Schema().Type(rm.Type)

	attrs := make([]string, 0, len(rm.Columns))
	for attr := range rm.Columns {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		defs = append(defs, fmt.Sprintf("%s %s",
			d.QuoteIdent(rm.Columns[attr]), d.ColumnType(def.Attributes[attr].Type)))
	}

	keys := make([]string, 0, len(rm.Relationships))
	for _, rel := range rm.Relationships {
		if rel.Strategy == core.StrategyOwnedKey {
			keys = append(keys, rel.KeyColumn)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		defs = append(defs, fmt.Sprintf("%s %s", d.QuoteIdent(key), idType))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdent(rm.Table), strings.Join(defs, ", "))
}

// ensureJoinTable creates a two-column join table: both sides' keys, no
// synthetic primary key, no uniqueness constraint.
func (s *Synthesizer) ensureJoinTable(ctx context.Context, rel *core.RelationMapping) error {
	exists, err := s.db.TableExists(ctx, rel.JoinTable)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("join table exists, skipping", slog.String("table", rel.JoinTable))
		return nil
	}

	d := s.db.Dialect()
	keyType := d.ColumnType(core.AttributeString)
	columns := []string{rel.JoinParentColumn, rel.JoinKeyColumn}
	sort.Strings(columns)

	stmt := fmt.Sprintf("CREATE TABLE %s (%s %s, %s %s)",
		d.QuoteIdent(rel.JoinTable),
		d.QuoteIdent(columns[0]), keyType,
		d.QuoteIdent(columns[1]), keyType,
	)
	s.logger.Debug("creating join table", slog.String("table", rel.JoinTable))
	if err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create join table %s: %w", rel.JoinTable, err)
	}
	return nil
}
