package core

// AttributeType is the primitive storage type of a declared attribute.
type AttributeType string

// Attribute type constants.
const (
	AttributeString   AttributeType = "string"
	AttributeNumber   AttributeType = "number"
	AttributeBoolean  AttributeType = "boolean"
	AttributeDate     AttributeType = "date"
	AttributeDateTime AttributeType = "datetime"
)

// RelationshipKind distinguishes single-valued from collection-valued
// relationships.
type RelationshipKind string

const (
	// RelationshipSingle holds at most one related record.
	RelationshipSingle RelationshipKind = "single"
	// RelationshipCollection holds any number of related records.
	RelationshipCollection RelationshipKind = "collection"
)

// AttributeDef declares one attribute of a record type.
type AttributeDef struct {
	Type AttributeType `koanf:"type" json:"type"`
}

// RelationshipDef declares one relationship of a record type.
//
// Target names the related type. It is a list on the wire so that a
// malformed multi-type declaration is representable; exactly one entry is
// valid, anything else is rejected when the mapping is built.
type RelationshipDef struct {
	Kind    RelationshipKind `koanf:"kind" json:"kind"`
	Target  []string         `koanf:"target" json:"target"`
	Inverse string           `koanf:"inverse" json:"inverse"`
}

// TypeDef declares the attributes and relationships of one record type.
type TypeDef struct {
	Attributes    map[string]AttributeDef    `koanf:"attributes" json:"attributes,omitempty"`
	Relationships map[string]RelationshipDef `koanf:"relationships" json:"relationships,omitempty"`
}

// Schema is the declarative type registry. It is set once at construction
// and treated as immutable for the life of the processor that holds it.
type Schema struct {
	Types map[string]TypeDef `koanf:"types" json:"types"`
}

// Type returns the definition for a type name.
func (s *Schema) Type(name string) (TypeDef, bool) {
	def, ok := s.Types[name]
	return def, ok
}

// Attribute returns the attribute definition for a type/attribute pair.
func (s *Schema) Attribute(typeName, attr string) (AttributeDef, bool) {
	def, ok := s.Types[typeName]
	if !ok {
		return AttributeDef{}, false
	}
	a, ok := def.Attributes[attr]
	return a, ok
}

// Relationship returns the relationship definition for a type/relationship
// pair.
func (s *Schema) Relationship(typeName, rel string) (RelationshipDef, bool) {
	def, ok := s.Types[typeName]
	if !ok {
		return RelationshipDef{}, false
	}
	r, ok := def.Relationships[rel]
	return r, ok
}
