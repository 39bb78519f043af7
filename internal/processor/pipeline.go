package processor

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// comparators maps filter operators to SQL comparison operators.
var comparators = map[string]string{
	core.FilterEqual: "=",
	core.FilterGt:    ">",
	core.FilterLt:    "<",
	core.FilterGte:   ">=",
	core.FilterLte:   "<=",
}

// compilePipeline renders the shared filter→sort→page pipeline as SQL
// clauses. Filters combine conjunctively; sort specifiers compose as
// successive ordering keys; offset/limit apply last. An unsupported
// specifier fails with a QueryExpressionError before any SQL executes.
//
// argOffset is the number of bind arguments already present in the base
// query; hasWhere reports whether the base query already carries a WHERE
// clause.
func (p *Processor) compilePipeline(rm *core.RelationalMapping, argOffset int, hasWhere bool, q *core.QueryExpression) (string, []any, error) {
	d := p.db.Dialect()
	def, ok := p.mapper.Schema().Type(rm.Type)
	if !ok {
		return "", nil, &core.SchemaError{Type: rm.Type, Reason: "type not declared in schema"}
	}

	var sb strings.Builder
	var args []any
	n := argOffset

	for _, f := range q.Filters {
		if f.Kind != core.SpecifierAttribute {
			return "", nil, &core.QueryExpressionError{Kind: "filter", Specifier: f}
		}
		comparator, ok := comparators[f.Op]
		if !ok {
			return "", nil, &core.QueryExpressionError{Kind: "filter", Specifier: f}
		}
		column, ok := rm.Column(f.Attribute)
		if !ok {
			return "", nil, &core.QueryExpressionError{Kind: "filter", Specifier: f}
		}
		value, err := p.codec.EncodeAttribute(def.Attributes[f.Attribute].Type, f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter value for %s: %w", f.Attribute, err)
		}

		n++
		if hasWhere {
			sb.WriteString(" AND ")
		} else {
			sb.WriteString(" WHERE ")
			hasWhere = true
		}
		fmt.Fprintf(&sb, "%s %s %s", d.QuoteIdent(column), comparator, d.FormatPlaceholder(n))
		args = append(args, value)
	}

	if len(q.Sorts) > 0 {
		keys := make([]string, 0, len(q.Sorts))
		for _, s := range q.Sorts {
			if s.Kind != core.SpecifierAttribute {
				return "", nil, &core.QueryExpressionError{Kind: "sort", Specifier: s}
			}
			column, ok := rm.Column(s.Attribute)
			if !ok {
				return "", nil, &core.QueryExpressionError{Kind: "sort", Specifier: s}
			}
			var direction string
			switch s.Order {
			case core.SortAscending, "":
				direction = "ASC"
			case core.SortDescending:
				direction = "DESC"
			default:
				return "", nil, &core.QueryExpressionError{Kind: "sort", Specifier: s}
			}
			keys = append(keys, fmt.Sprintf("%s %s", d.QuoteIdent(column), direction))
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}

	if q.Page != nil {
		if q.Page.Kind != core.SpecifierOffsetLimit {
			return "", nil, &core.QueryExpressionError{Kind: "page", Specifier: q.Page}
		}
		switch {
		case q.Page.Limit != nil:
			fmt.Fprintf(&sb, " LIMIT %d", *q.Page.Limit)
		case q.Page.Offset != nil && d.OffsetRequiresLimit:
			sb.WriteString(" LIMIT -1")
		}
		if q.Page.Offset != nil {
			fmt.Fprintf(&sb, " OFFSET %d", *q.Page.Offset)
		}
	}

	return sb.String(), args, nil
}
