package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
	"github.com/7and1/difyrun/internal/core/ports/driving"
	"github.com/7and1/difyrun/internal/logger"
)

// Ensure SourceService implements the interface.
var _ driving.SourceManager = (*SourceService)(nil)

// SourceService manages source configurations.
type SourceService struct {
	sourceStore driven.SourceStore
}

// NewSourceService creates a new source service.
func NewSourceService(sourceStore driven.SourceStore) *SourceService {
	return &SourceService{sourceStore: sourceStore}
}

// Add creates a new source configuration.
func (s *SourceService) Add(ctx context.Context, source domain.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err == nil && existing != nil {
		return fmt.Errorf("%s: %w", source.ID, domain.ErrAlreadyExists)
	}
	return s.sourceStore.Save(ctx, source)
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// List returns configured sources in descending weight order.
func (s *SourceService) List(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	return s.sourceStore.List(ctx, activeOnly)
}

// Update modifies an existing source configuration.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	if _, err := s.sourceStore.Get(ctx, source.ID); err != nil {
		return err
	}
	return s.sourceStore.Save(ctx, source)
}

// Remove deletes a source. Workflows ingested from it are kept; they
// stop refreshing but remain browseable.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	return s.sourceStore.Delete(ctx, id)
}

// Seed reconciles declarative source definitions into the store.
// Missing sources are created; existing ones get their configuration
// fields refreshed while sync bookkeeping is left alone.
func (s *SourceService) Seed(ctx context.Context, sources []domain.Source) error {
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return fmt.Errorf("seed %s: %w", source.ID, err)
		}

		existing, err := s.sourceStore.Get(ctx, source.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed %s: %w", source.ID, err)
		}

		if existing != nil {
			// Carry the bookkeeping over so a config reload does not
			// erase sync history.
			source.TotalWorkflows = existing.TotalWorkflows
			source.LastSyncedAt = existing.LastSyncedAt
			source.LastSyncError = existing.LastSyncError
			source.CreatedAt = existing.CreatedAt
		}

		if err := s.sourceStore.Save(ctx, source); err != nil {
			return fmt.Errorf("seed %s: %w", source.ID, err)
		}
		logger.Debug("seeded source %s (%s)", source.ID, source.FullName())
	}
	return nil
}
