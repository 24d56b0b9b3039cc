// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceStore: Source configuration persistence
//   - WorkflowStore: Catalog persistence with counter-preserving upsert
//   - CategoryStore: Category listing and denormalised count refresh
//   - RepoFetcher: Candidate listing and content retrieval from the
//     upstream repository host
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
