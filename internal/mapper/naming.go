package mapper

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Underscore converts a camelCase name to snake_case.
func Underscore(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TableName derives the table name for a record type:
// underscored and pluralized.
func TableName(typeName string) string {
	return inflection.Plural(Underscore(typeName))
}

// KeyColumn derives the foreign-key column name for a relationship.
func KeyColumn(relName string) string {
	return Underscore(relName) + "_id"
}

// JoinTableName derives the join-table name from the two relationship
// names, sorted lexicographically so both sides agree on the same table
// independent of which side is compiled first.
func JoinTableName(relName, inverse string) string {
	names := []string{Underscore(relName), Underscore(inverse)}
	sort.Strings(names)
	return strings.Join(names, "_")
}
