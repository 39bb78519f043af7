package core

import "database/sql"

// AdapterConfig holds configuration for connecting to a storage target.
type AdapterConfig struct {
	Type     string            `koanf:"type" json:"type"`
	Database string            `koanf:"database" json:"database"`
	Host     string            `koanf:"host" json:"host"`
	Port     int               `koanf:"port" json:"port"`
	Username string            `koanf:"user" json:"user"`
	Password string            `koanf:"password" json:"password"`
	Options  map[string]string `koanf:"options" json:"options,omitempty"`
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Tx wraps sql.Tx. One caller-issued batch executes inside exactly one Tx;
// the core adds no locking or isolation of its own beyond what the
// underlying engine provides.
type Tx struct {
	*sql.Tx
}
