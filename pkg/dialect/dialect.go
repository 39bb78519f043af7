// Package dialect provides SQL dialect configuration for the storage
// adapters: bind placeholders, identifier quoting, storage column types and
// the table-existence probe used by the migration synthesizer.
//
// Built-in dialects register themselves in init; adapters look them up by
// the adapter type name.
package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Dialect holds the static SQL configuration for one storage engine.
type Dialect struct {
	// Name matches the adapter type name ("sqlite", "postgres", "duckdb").
	Name string

	// OrdinalPlaceholders selects $1-style placeholders over ?-style.
	OrdinalPlaceholders bool

	// ColumnTypes maps declared attribute types to storage column types.
	ColumnTypes map[core.AttributeType]string

	// TimestampType is the column type for the reserved created_at and
	// updated_at columns.
	TimestampType string

	// CurrentTimestamp is the SQL expression producing the server-assigned
	// timestamp default.
	CurrentTimestamp string

	// TableExistsQuery takes one bind parameter (the table name) and
	// returns a row iff the table exists.
	TableExistsQuery string

	// OffsetRequiresLimit is set for engines that reject a bare OFFSET
	// clause (SQLite). The query pipeline emits LIMIT -1 for those.
	OffsetRequiresLimit bool
}

// FormatPlaceholder returns the bind placeholder for the 1-based position n.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.OrdinalPlaceholders {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Placeholders returns n comma-joined placeholders starting at position
// start (1-based).
func (d *Dialect) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.FormatPlaceholder(start + i)
	}
	return strings.Join(parts, ", ")
}

// QuoteIdent quotes a table or column identifier.
func (d *Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType maps a declared attribute type to the storage column type.
// Unknown attribute types fall back to the string column type.
func (d *Dialect) ColumnType(t core.AttributeType) string {
	if ct, ok := d.ColumnTypes[t]; ok {
		return ct
	}
	return d.ColumnTypes[core.AttributeString]
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dialect)
)

// Register adds a dialect to the registry.
func Register(d *Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Get retrieves a dialect by name.
func Get(name string) (*Dialect, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Names returns all registered dialect names (sorted).
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
