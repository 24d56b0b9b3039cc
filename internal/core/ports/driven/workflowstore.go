package driven

import (
	"context"

	"github.com/7and1/difyrun/internal/core/domain"
)

// WorkflowStore persists the workflow catalog.
type WorkflowStore interface {
	// Upsert inserts or updates a workflow keyed by slug, atomically
	// from the caller's perspective. On update the existing row's ID,
	// engagement counters, and CreatedAt are preserved; only
	// content-derived fields and sync timestamps are overwritten.
	Upsert(ctx context.Context, wf *domain.Workflow) error

	// GetBySlug retrieves a workflow by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Workflow, error)

	// ListFingerprints returns the (slug, content hash) pairs for one
	// source in a single bulk query. The reconciler reads this once,
	// before any writes for the source.
	ListFingerprints(ctx context.Context, sourceID string) ([]domain.FingerprintRef, error)

	// ListBySource returns all workflows ingested from a source.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Workflow, error)

	// DeleteBySlugs removes workflows by slug within a source and
	// returns the number deleted. Used by the optional prune pass.
	DeleteBySlugs(ctx context.Context, sourceID string, slugs []string) (int, error)

	// CountBySource returns the number of workflows for a source.
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// CategoryStore reads categories and maintains their denormalised counts.
type CategoryStore interface {
	// List returns all categories in display order.
	List(ctx context.Context) ([]domain.Category, error)

	// RefreshCounts recomputes every category's workflow count from
	// the catalog in one aggregate pass.
	RefreshCounts(ctx context.Context) error
}
