package driving

import (
	"context"

	"github.com/7and1/difyrun/internal/core/domain"
)

// CatalogSyncer drives catalog synchronisation from configured sources.
type CatalogSyncer interface {
	// SyncAll reconciles every active source sequentially, then
	// refreshes category counts. Source-level failures are recorded
	// per source and reflected in the result; no error escapes unless
	// the run could not start at all.
	SyncAll(ctx context.Context) (*domain.SyncResult, error)

	// SyncOne reconciles a single source by ID, then refreshes
	// category counts.
	SyncOne(ctx context.Context, sourceID string) (*domain.SyncResult, error)

	// Status reports progress for a source's in-flight sync.
	Status(ctx context.Context, sourceID string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// SourceID identifies the source.
	SourceID string

	// Running indicates if sync is currently in progress.
	Running bool

	// FilesProcessed is the count of files processed so far.
	FilesProcessed int

	// ErrorCount is the number of file-level errors encountered.
	ErrorCount int
}
