// Package domain defines the core business entities for difyrun.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A configured upstream repository of workflow DSL files
//   - Workflow: One ingested DSL document and its derived metadata
//   - Category: A catalog bucket with a denormalised workflow count
//   - SyncResult: The outcome of one sync run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
