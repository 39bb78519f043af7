// Package adapter provides the storage adapter interface and shared
// database/sql plumbing for RecordSQL.
//
// This package contains the public contract that all storage adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories and register themselves with this package's registry.
package adapter

import (
	"context"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all storage adapters must implement.
// It is the only contract the core holds against the underlying relational
// engine: statement execution, transactions and an existence probe. Retry
// policy, pooling and isolation levels stay with the engine.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*core.Rows, error)

	// Begin opens the transaction that scopes one caller batch.
	Begin(ctx context.Context) (*core.Tx, error)

	// TableExists reports whether a table is present in the target.
	TableExists(ctx context.Context, table string) (bool, error)

	// Dialect returns the SQL dialect configuration for this adapter.
	Dialect() *dialect.Dialect
}
