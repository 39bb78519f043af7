package core

// QueryType tags the query expression union.
type QueryType string

// Query type constants. These are the wire names.
const (
	QueryFindRecord         QueryType = "find_record"
	QueryFindRecords        QueryType = "find_records"
	QueryFindRelatedRecord  QueryType = "find_related_record"
	QueryFindRelatedRecords QueryType = "find_related_records"
)

// Specifier kinds understood by the filter/sort/page pipeline. Anything
// else fails with a QueryExpressionError before any SQL executes.
const (
	SpecifierAttribute   = "attribute"
	SpecifierOffsetLimit = "offsetLimit"
)

// Comparison operators for attribute filters.
const (
	FilterEqual = "equal"
	FilterGt    = "gt"
	FilterLt    = "lt"
	FilterGte   = "gte"
	FilterLte   = "lte"
)

// Sort orders.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

// FilterSpecifier restricts a collection query to records whose attribute
// compares true against Value. Multiple filters combine conjunctively.
type FilterSpecifier struct {
	Kind      string `json:"kind"`
	Attribute string `json:"attribute"`
	Op        string `json:"op"`
	Value     any    `json:"value"`
}

// SortSpecifier orders a collection query by one attribute. Multiple
// specifiers compose as successive ordering keys, first listed is primary.
type SortSpecifier struct {
	Kind      string `json:"kind"`
	Attribute string `json:"attribute"`
	Order     string `json:"order"`
}

// PageSpecifier applies offset/limit paging after filter and sort.
type PageSpecifier struct {
	Kind   string `json:"kind"`
	Offset *int   `json:"offset,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// QueryExpression is one element of a query batch. Op selects the variant:
//
//   - find_record: Record
//   - find_records: Type (scan) or Records (explicit identity list)
//   - find_related_record: Record, Relationship
//   - find_related_records: Record, Relationship
//
// Filters, Sorts and Page apply to the collection variants only.
type QueryExpression struct {
	Op           QueryType         `json:"op"`
	Record       *Identity         `json:"record,omitempty"`
	Records      []Identity        `json:"records,omitempty"`
	Type         string            `json:"type,omitempty"`
	Relationship string            `json:"relationship,omitempty"`
	Filters      []FilterSpecifier `json:"filter,omitempty"`
	Sorts        []SortSpecifier   `json:"sort,omitempty"`
	Page         *PageSpecifier    `json:"page,omitempty"`
}

// QueryResult holds the outcome of one query expression. Many reports
// whether the expression was collection-shaped: when true Records carries
// the result (possibly empty), when false Record carries it (possibly nil
// for an absent single-valued related record).
type QueryResult struct {
	Record  *Record   `json:"record,omitempty"`
	Records []*Record `json:"records,omitempty"`
	Many    bool      `json:"many"`
}
