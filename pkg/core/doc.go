// Package core defines the shared language of the MiniSQL engine.
//
// This package contains:
//   - Column types (FieldType) and schemas (Field, Schema)
//   - The runtime value union (Value)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// Storage, planning and execution depend on core, not the reverse.
package core
