// Package mapper compiles the declarative type registry into relational
// mappings: a table name, column names and a strategy per relationship.
//
// Mappings are pure functions of the schema. They are built lazily and
// memoized; a "build in progress" marker per type makes cyclic relationship
// graphs safe, so each type's mapping is computed at most once even when
// reached recursively through its own relationships.
package mapper

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Mapper owns the memoized relational mappings for one schema registry.
// It is owned by a single processor instance, never shared globally.
type Mapper struct {
	schema *core.Schema

	mu sync.Mutex
	// mappings memoizes compiled mappings by type name. A nil entry marks
	// a mapping currently being built higher up the call stack.
	mappings map[string]*core.RelationalMapping
}

// New creates a mapper for a schema registry. The schema must not be
// mutated afterwards.
func New(schema *core.Schema) *Mapper {
	return &Mapper{
		schema:   schema,
		mappings: make(map[string]*core.RelationalMapping),
	}
}

// Schema returns the schema registry the mapper compiles from.
func (m *Mapper) Schema() *core.Schema {
	return m.schema
}

// Mapping returns the compiled relational mapping for a type, building and
// memoizing it on first use. Schema violations surface here as
// *core.SchemaError, never inside a live transaction.
func (m *Mapper) Mapping(typeName string) (*core.RelationalMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapping(typeName)
}

// All compiles and returns the mappings for every declared type, sorted by
// type name.
func (m *Mapper) All() ([]*core.RelationalMapping, error) {
	names := make([]string, 0, len(m.schema.Types))
	for name := range m.schema.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	m.mu.Lock()
	defer m.mu.Unlock()

	mappings := make([]*core.RelationalMapping, 0, len(names))
	for _, name := range names {
		rm, err := m.mapping(name)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, rm)
	}
	return mappings, nil
}

// mapping builds a mapping under m.mu. It may re-enter itself through
// relationship targets; the nil in-progress entry terminates cycles.
func (m *Mapper) mapping(typeName string) (*core.RelationalMapping, error) {
	if existing, ok := m.mappings[typeName]; ok {
		// A nil entry means this type is being built further up the
		// stack. Callers reaching it recursively only need the build
		// ensured, not the value.
		return existing, nil
	}

	def, ok := m.schema.Type(typeName)
	if !ok {
		return nil, &core.SchemaError{Type: typeName, Reason: "type not declared in schema"}
	}

	m.mappings[typeName] = nil

	rm := &core.RelationalMapping{
		Type:          typeName,
		Table:         TableName(typeName),
		Columns:       make(map[string]string, len(def.Attributes)),
		Relationships: make(map[string]*core.RelationMapping, len(def.Relationships)),
	}
	for attr := range def.Attributes {
		rm.Columns[attr] = Underscore(attr)
	}

	for relName, rel := range def.Relationships {
		compiled, err := m.compileRelationship(typeName, relName, rel)
		if err != nil {
			delete(m.mappings, typeName)
			return nil, err
		}
		rm.Relationships[relName] = compiled
	}

	m.mappings[typeName] = rm

	// Resolve related types eagerly so their key columns exist by the time
	// this mapping is used. Types already in progress are skipped.
	for _, compiled := range rm.Relationships {
		if _, err := m.mapping(compiled.Target); err != nil {
			delete(m.mappings, typeName)
			return nil, err
		}
	}

	return rm, nil
}

// compileRelationship validates one relationship declaration and selects
// its relational strategy. Choosing only needs the kind of the inverse on
// the target type, not the target's full mapping, which is what keeps the
// memoization scheme sufficient for cycles.
func (m *Mapper) compileRelationship(typeName, relName string, rel core.RelationshipDef) (*core.RelationMapping, error) {
	if len(rel.Target) == 0 {
		return nil, &core.SchemaError{Type: typeName, Relationship: relName, Reason: "relationship has no target type"}
	}
	if len(rel.Target) > 1 {
		return nil, &core.SchemaError{
			Type:         typeName,
			Relationship: relName,
			Reason:       fmt.Sprintf("relationship targets multiple types %v", rel.Target),
		}
	}
	target := rel.Target[0]
	if _, ok := m.schema.Type(target); !ok {
		return nil, &core.SchemaError{
			Type:         typeName,
			Relationship: relName,
			Reason:       fmt.Sprintf("target type %q not declared in schema", target),
		}
	}
	if rel.Inverse == "" {
		return nil, &core.SchemaError{Type: typeName, Relationship: relName, Reason: "relationship has no inverse"}
	}
	inverse, ok := m.schema.Relationship(target, rel.Inverse)
	if !ok {
		return nil, &core.SchemaError{
			Type:         typeName,
			Relationship: relName,
			Reason:       fmt.Sprintf("inverse %q not declared on target type %q", rel.Inverse, target),
		}
	}

	compiled := &core.RelationMapping{
		Kind:        rel.Kind,
		Target:      target,
		TargetTable: TableName(target),
		Inverse:     rel.Inverse,
	}

	switch {
	case rel.Kind == core.RelationshipSingle:
		compiled.Strategy = core.StrategyOwnedKey
		compiled.KeyColumn = KeyColumn(relName)
	case rel.Kind == core.RelationshipCollection && inverse.Kind == core.RelationshipSingle:
		compiled.Strategy = core.StrategyTargetKey
		compiled.TargetKeyColumn = KeyColumn(rel.Inverse)
	case rel.Kind == core.RelationshipCollection && inverse.Kind == core.RelationshipCollection:
		compiled.Strategy = core.StrategyJoinTable
		compiled.JoinTable = JoinTableName(relName, rel.Inverse)
		// A join-table column named after a relationship holds the ids of
		// that relationship's target, so both sides derive the same pair.
		compiled.JoinKeyColumn = KeyColumn(relName)
		compiled.JoinParentColumn = KeyColumn(rel.Inverse)
	default:
		return nil, &core.SchemaError{
			Type:         typeName,
			Relationship: relName,
			Reason:       fmt.Sprintf("unknown relationship kind %q", rel.Kind),
		}
	}

	return compiled, nil
}
