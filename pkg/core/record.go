package core

import "fmt"

// Identity addresses one record by type and caller-assigned id.
// IDs are opaque strings, stable and immutable after creation.
type Identity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String renders the identity as "type:id".
func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.Type, i.ID)
}

// RelationshipData carries the relationship payload of a record.
// For single-valued relationships Record is used (nil clears the link);
// for collection-valued relationships Records is used. Presence of the
// map key in Record.Relationships is what marks the relationship as part
// of the payload.
type RelationshipData struct {
	Record  *Identity  `json:"record,omitempty"`
	Records []Identity `json:"records,omitempty"`
}

// Record is an abstract entity: a type, an identity, typed attributes and
// named relationships. Attributes and Relationships are optional; an absent
// map key means "not part of this payload", never "null".
type Record struct {
	Type          string                      `json:"type"`
	ID            string                      `json:"id"`
	Attributes    map[string]any              `json:"attributes,omitempty"`
	Relationships map[string]RelationshipData `json:"relationships,omitempty"`
}

// Identity returns the record's identity.
func (r *Record) Identity() Identity {
	return Identity{Type: r.Type, ID: r.ID}
}
