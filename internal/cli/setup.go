package cli

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/recordsql/internal/config"
	"github.com/leapstack-labs/recordsql/internal/migrate"
	"github.com/leapstack-labs/recordsql/internal/processor"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// commandContext holds common dependencies for CLI commands: the loaded
// schema document, an open storage adapter and a processor over both.
type commandContext struct {
	schema *core.Schema
	db     adapter.Adapter
	proc   *processor.Processor
}

// newCommandContext loads the schema document, connects the configured
// target and builds a processor. Returns the context and a cleanup function
// that must be called (typically via defer).
func newCommandContext(ctx context.Context) (*commandContext, func(), error) {
	schema, err := config.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := adapter.New(cfg.Target, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Connect(ctx, cfg.Target); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Target.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return &commandContext{
		schema: schema,
		db:     db,
		proc:   processor.New(db, schema, logger),
	}, cleanup, nil
}

// ensureSchema synthesizes any missing tables before a command touches
// storage. Idempotent, so every data command can call it unconditionally.
func (cc *commandContext) ensureSchema(ctx context.Context) error {
	syn := migrate.New(cc.db, cc.proc.Mapper(), logger)
	if err := syn.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to synchronize schema: %w", err)
	}
	return nil
}
