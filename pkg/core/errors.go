package core

import "fmt"

// SchemaError reports a malformed type registry: a relationship missing its
// inverse or target, an inverse absent on the target type, or a target
// declared as multiple types. It is raised once when a mapping is built,
// never inside a live transaction, and is not retryable.
type SchemaError struct {
	Type         string
	Relationship string
	Reason       string
}

func (e *SchemaError) Error() string {
	if e.Relationship != "" {
		return fmt.Sprintf("schema error on %s.%s: %s", e.Type, e.Relationship, e.Reason)
	}
	return fmt.Sprintf("schema error on %s: %s", e.Type, e.Reason)
}

// RecordNotFoundError reports that an operation or query addressed an
// identity with no stored row. It always aborts the enclosing batch.
type RecordNotFoundError struct {
	Type string
	ID   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("Record not found: %s:%s", e.Type, e.ID)
}

// NewRecordNotFound builds a RecordNotFoundError for an identity.
func NewRecordNotFound(id Identity) *RecordNotFoundError {
	return &RecordNotFoundError{Type: id.Type, ID: id.ID}
}

// QueryExpressionError reports a filter, sort or page specifier the
// pipeline does not implement. The query aborts immediately; no partial
// result is returned.
type QueryExpressionError struct {
	Kind      string
	Specifier any
}

func (e *QueryExpressionError) Error() string {
	return fmt.Sprintf("query expression not recognized: %s %+v", e.Kind, e.Specifier)
}
