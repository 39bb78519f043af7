// Package core defines the shared language of the RecordSQL system.
//
// This package contains:
//   - The declarative schema registry types (Schema, TypeDef)
//   - The abstract record model (Record, Identity)
//   - The operation and query expression unions
//   - Service contracts shared with adapters (AdapterConfig, Rows, Tx)
//   - Domain error types
//
// The Golden Rule: pkg/core imports only the stdlib.
// All other packages depend on core, not the reverse.
package core
