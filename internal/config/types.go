// Package config provides configuration and schema-document loading for
// RecordSQL. It is decoupled from CLI concerns so other hosts can load
// project configuration the same way.
package config

import (
	"fmt"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Config holds the full RecordSQL configuration.
type Config struct {
	// Target is the storage target the processor connects to.
	Target core.AdapterConfig `koanf:"target"`

	// SchemaPath is the path to the declarative schema document (YAML).
	SchemaPath string `koanf:"schema_path"`

	// LogLevel sets the slog level: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Verbose forces debug logging regardless of LogLevel.
	Verbose bool `koanf:"verbose"`
}

// Validate checks if the configuration is usable.
// It uses the adapter registry as the single source of truth for which
// target types are available.
func (c *Config) Validate() error {
	if c.Target.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(c.Target.Type) {
		return &adapter.UnknownAdapterError{
			Type:      c.Target.Type,
			Available: adapter.List(),
		}
	}
	if c.SchemaPath == "" {
		return fmt.Errorf("schema_path is required")
	}
	return nil
}
