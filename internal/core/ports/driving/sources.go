package driving

import (
	"context"

	"github.com/7and1/difyrun/internal/core/domain"
)

// SourceManager manages source configurations.
type SourceManager interface {
	// Add creates a new source configuration.
	Add(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List returns configured sources. With activeOnly set, inactive
	// sources are omitted.
	List(ctx context.Context, activeOnly bool) ([]domain.Source, error)

	// Update modifies an existing source configuration.
	Update(ctx context.Context, source domain.Source) error

	// Remove deletes a source configuration. Already-ingested
	// workflows stay in the catalog.
	Remove(ctx context.Context, id string) error

	// Seed loads declarative source definitions, creating missing
	// sources and updating the configuration fields of existing ones
	// without touching their sync bookkeeping.
	Seed(ctx context.Context, sources []domain.Source) error
}
