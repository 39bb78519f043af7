// Package codec converts between the abstract record representation and the
// flat relational row representation: schema projection, type coercion and
// relationship (de)serialization.
package codec

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Reserved column names. They are server-assigned and never accepted from a
// write payload.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// datetimeLayouts are the stored string shapes accepted for date and
// datetime attributes, tried in order.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Codec performs record/row conversion against one schema registry.
type Codec struct {
	schema *core.Schema
}

// New creates a codec for a schema registry.
func New(schema *core.Schema) *Codec {
	return &Codec{schema: schema}
}

// ToRow projects a record onto its flat row representation. Only attributes
// declared in the schema for the record's type are projected; undeclared
// keys are ignored, as are the reserved column names. Single-valued
// relationship payloads become a key value or nil; collection-valued
// payloads never contribute columns.
func (c *Codec) ToRow(mapping *core.RelationalMapping, rec *core.Record) (map[string]any, error) {
	def, ok := c.schema.Type(rec.Type)
	if !ok {
		return nil, &core.SchemaError{Type: rec.Type, Reason: "type not declared in schema"}
	}

	row := map[string]any{ColumnID: rec.ID}

	for attr, value := range rec.Attributes {
		attrDef, ok := def.Attributes[attr]
		if !ok {
			continue
		}
		column := mapping.Columns[attr]
		if column == ColumnID || column == ColumnCreatedAt || column == ColumnUpdatedAt {
			continue
		}
		encoded, err := c.EncodeAttribute(attrDef.Type, value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s.%s: %w", rec.Type, attr, err)
		}
		row[column] = encoded
	}

	for relName, data := range rec.Relationships {
		rel, ok := mapping.Relationship(relName)
		if !ok || rel.Strategy != core.StrategyOwnedKey {
			continue
		}
		if data.Record != nil {
			row[rel.KeyColumn] = data.Record.ID
		} else {
			row[rel.KeyColumn] = nil
		}
	}

	return row, nil
}

// FromRow rebuilds a record from its stored row. Every declared attribute
// present and non-null on the row is copied with coercion applied. A
// single-valued relationship is embedded inline as an identity only when
// its key column is non-null; collection-valued relationships are never
// embedded and must be fetched through a relation traversal, which bounds
// the cost of reading a record to one row fetch.
func (c *Codec) FromRow(mapping *core.RelationalMapping, row map[string]any) (*core.Record, error) {
	def, ok := c.schema.Type(mapping.Type)
	if !ok {
		return nil, &core.SchemaError{Type: mapping.Type, Reason: "type not declared in schema"}
	}

	rec := &core.Record{Type: mapping.Type}
	if id, ok := row[ColumnID]; ok && id != nil {
		rec.ID = AsString(id)
	}

	for attr, attrDef := range def.Attributes {
		column := mapping.Columns[attr]
		value, ok := row[column]
		if !ok || value == nil {
			continue
		}
		decoded, err := c.DecodeAttribute(attrDef.Type, value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s: %w", mapping.Type, attr, err)
		}
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]any)
		}
		rec.Attributes[attr] = decoded
	}

	for relName, rel := range mapping.Relationships {
		if rel.Strategy != core.StrategyOwnedKey {
			continue
		}
		value, ok := row[rel.KeyColumn]
		if !ok || value == nil {
			continue
		}
		if rec.Relationships == nil {
			rec.Relationships = make(map[string]core.RelationshipData)
		}
		rec.Relationships[relName] = core.RelationshipData{
			Record: &core.Identity{Type: rel.Target, ID: AsString(value)},
		}
	}

	return rec, nil
}

// EncodeAttribute converts an attribute value from its abstract shape to
// the shape handed to the storage driver. It is also applied to filter
// values so comparisons hit storage in column representation.
func (c *Codec) EncodeAttribute(t core.AttributeType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch t {
	case core.AttributeDate, core.AttributeDateTime:
		return toTime(value)
	case core.AttributeBoolean:
		return toBool(value)
	case core.AttributeNumber:
		return toFloat(value)
	default:
		return value, nil
	}
}

// DecodeAttribute converts a stored value back to its abstract shape:
// 0/1 integers become booleans, stored strings and numbers become time
// values for date and datetime attributes, integers become float64 for
// number attributes.
func (c *Codec) DecodeAttribute(t core.AttributeType, value any) (any, error) {
	switch t {
	case core.AttributeDate, core.AttributeDateTime:
		return toTime(value)
	case core.AttributeBoolean:
		return toBool(value)
	case core.AttributeNumber:
		return toFloat(value)
	case core.AttributeString:
		return AsString(value), nil
	default:
		return value, nil
	}
}

// AsString renders a scanned value as a string. Drivers may hand TEXT
// columns back as []byte; both shapes must yield the same id.
func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot coerce %T to boolean", value)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to number", value)
	}
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as datetime", v)
	case []byte:
		return toTime(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("cannot coerce %T to datetime", value)
	}
}
