package core

// OperationType tags the write operation union.
type OperationType string

// Operation type constants. These are the wire names.
const (
	OpAddRecord                OperationType = "add_record"
	OpUpdateRecord             OperationType = "update_record"
	OpRemoveRecord             OperationType = "remove_record"
	OpReplaceAttribute         OperationType = "replace_attribute"
	OpReplaceRelatedRecord     OperationType = "replace_related_record"
	OpReplaceRelatedRecords    OperationType = "replace_related_records"
	OpAddToRelatedRecords      OperationType = "add_to_related_records"
	OpRemoveFromRelatedRecords OperationType = "remove_from_related_records"
)

// Operation is one element of a write batch. Op selects the variant; the
// remaining fields are the variant payloads:
//
//   - add_record, update_record: Record
//   - remove_record: Identity
//   - replace_attribute: Identity, Attribute, Value
//   - replace_related_record: Identity, Relationship, RelatedRecord (nil clears)
//   - replace_related_records: Identity, Relationship, RelatedRecords
//   - add_to_related_records, remove_from_related_records:
//     Identity, Relationship, RelatedRecord
type Operation struct {
	Op             OperationType `json:"op"`
	Record         *Record       `json:"record,omitempty"`
	Identity       *Identity     `json:"identity,omitempty"`
	Attribute      string        `json:"attribute,omitempty"`
	Value          any           `json:"value,omitempty"`
	Relationship   string        `json:"relationship,omitempty"`
	RelatedRecord  *Identity     `json:"relatedRecord,omitempty"`
	RelatedRecords []Identity    `json:"relatedRecords,omitempty"`
}

// Target returns the identity the operation addresses.
func (o *Operation) Target() Identity {
	if o.Identity != nil {
		return *o.Identity
	}
	if o.Record != nil {
		return o.Record.Identity()
	}
	return Identity{}
}
