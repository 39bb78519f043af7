package config

// ConfigFileName is the name of the config file.
const ConfigFileName = "recordsql.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "recordsql.yml"

// Default configuration values.
const (
	DefaultTargetType = "sqlite"
	DefaultDatabase   = ":memory:"
	DefaultSchemaPath = "schema.yaml"
	DefaultLogLevel   = "info"
)
