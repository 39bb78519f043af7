package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// findConfigFile finds the config file to use.
// Priority: explicit path > recordsql.yaml > recordsql.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// Load builds the configuration by layering, in increasing priority:
// built-in defaults, the YAML config file, RECORDSQL_-prefixed environment
// variables, and explicitly-set CLI flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"target.type":     DefaultTargetType,
		"target.database": DefaultDatabase,
		"schema_path":     DefaultSchemaPath,
		"log_level":       DefaultLogLevel,
		"verbose":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional)
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	// 3. Environment variables: RECORDSQL_TARGET.TYPE etc.
	if err := k.Load(env.Provider("RECORDSQL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RECORDSQL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority); only flags that were explicitly set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "target":
				key = "target.type"
			case "database":
				key = "target.database"
			case "schema":
				key = "schema_path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadSchema loads a declarative schema document from a YAML file.
// Relationship targets are written as single-element lists:
//
//	types:
//	  planet:
//	    attributes:
//	      name: {type: string}
//	    relationships:
//	      moons: {kind: collection, target: [moon], inverse: planet}
func LoadSchema(path string) (*core.Schema, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load schema file %s: %w", path, err)
	}

	var schema core.Schema
	if err := k.Unmarshal("", &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	if len(schema.Types) == 0 {
		return nil, fmt.Errorf("schema file %s declares no types", path)
	}
	return &schema, nil
}
