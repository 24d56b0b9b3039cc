// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SourceStore: Source configuration and sync bookkeeping
//   - WorkflowStore: Workflow catalog persistence
//   - CategoryStore: Category listing and denormalised counts
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. The fixed category set is seeded when the store opens.
//
// # Data Location
//
// By default, the database is stored at ~/.difyrun/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
