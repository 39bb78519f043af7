// Package sqlite provides the SQLite storage adapter for RecordSQL.
// It is the default target and backs the test suite via ":memory:".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the SQLite database. Use ":memory:" for an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("database", path))

	// Store time.Time values in SQLite's own text format so they read back
	// through the datetime coercions.
	db, err := sql.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A second connection to a :memory: database would see a different,
	// empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// TableExists reports whether a table is present.
func (a *Adapter) TableExists(ctx context.Context, table string) (bool, error) {
	return a.TableExistsWithDialect(ctx, table, a.Dialect())
}

// Dialect returns the SQLite dialect configuration.
func (a *Adapter) Dialect() *dialect.Dialect {
	d, _ := dialect.Get("sqlite")
	return d
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
