package driven

import (
	"context"
	"time"

	"github.com/7and1/difyrun/internal/core/domain"
)

// SourceStore persists source configurations and their sync bookkeeping.
type SourceStore interface {
	// Save stores or updates a source configuration.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Delete removes a source. Workflows ingested from it are kept.
	Delete(ctx context.Context, id string) error

	// List returns sources ordered by descending weight. With
	// activeOnly set, inactive sources are omitted.
	List(ctx context.Context, activeOnly bool) ([]domain.Source, error)

	// RecordSyncSuccess updates a source's bookkeeping after a clean
	// sync: workflow total, sync time, and a cleared error message.
	RecordSyncSuccess(ctx context.Context, id string, totalWorkflows int, syncedAt time.Time) error

	// RecordSyncError stores the source-level error message from a
	// failed sync without touching the last-synced timestamp.
	RecordSyncError(ctx context.Context, id string, message string) error
}
