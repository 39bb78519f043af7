package core

// RelationStrategy describes how one relationship is encoded relationally.
type RelationStrategy string

const (
	// StrategyOwnedKey stores a nullable key column on this type's table.
	// Used whenever the relationship itself is single-valued.
	StrategyOwnedKey RelationStrategy = "owned_key"
	// StrategyTargetKey relies on the key column owned by the target's
	// table. Used when the relationship is collection-valued and its
	// inverse is single-valued.
	StrategyTargetKey RelationStrategy = "target_key"
	// StrategyJoinTable stores links in a two-column join table. Used when
	// both the relationship and its inverse are collection-valued.
	StrategyJoinTable RelationStrategy = "join_table"
)

// RelationMapping is the compiled relational encoding of one relationship.
// Which fields are populated depends on Strategy:
//
//   - StrategyOwnedKey: KeyColumn on this type's table
//   - StrategyTargetKey: TargetKeyColumn on the target's table
//   - StrategyJoinTable: JoinTable with JoinParentColumn (this type's ids)
//     and JoinKeyColumn (target ids)
type RelationMapping struct {
	Strategy    RelationStrategy
	Kind        RelationshipKind
	Target      string
	TargetTable string
	Inverse     string

	KeyColumn        string
	TargetKeyColumn  string
	JoinTable        string
	JoinParentColumn string
	JoinKeyColumn    string
}

// RelationalMapping is the compiled relational encoding of one record type:
// its table, one column per declared attribute, and a strategy per
// relationship. Mappings are pure functions of the schema registry, built
// lazily and memoized by the mapper.
type RelationalMapping struct {
	Type          string
	Table         string
	Columns       map[string]string
	Relationships map[string]*RelationMapping
}

// Column returns the storage column for a declared attribute.
func (m *RelationalMapping) Column(attr string) (string, bool) {
	c, ok := m.Columns[attr]
	return c, ok
}

// Relationship returns the compiled mapping for a relationship name.
func (m *RelationalMapping) Relationship(name string) (*RelationMapping, bool) {
	r, ok := m.Relationships[name]
	return r, ok
}
