package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]domain.Source),
	}
}

// Save stores or updates a source.
func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.sources[source.ID]; ok {
		source.CreatedAt = existing.CreatedAt
	} else if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	s.sources[source.ID] = source
	return nil
}

// Get retrieves a source by ID.
func (s *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// Delete removes a source.
func (s *SourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sources, id)
	return nil
}

// List returns sources ordered by descending weight, then ID for a
// stable order between equal weights.
func (s *SourceStore) List(_ context.Context, activeOnly bool) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Source, 0, len(s.sources))
	for _, source := range s.sources {
		if activeOnly && !source.Active {
			continue
		}
		result = append(result, source)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Weight != result[j].Weight {
			return result[i].Weight > result[j].Weight
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// RecordSyncSuccess updates a source's post-sync bookkeeping.
func (s *SourceStore) RecordSyncSuccess(_ context.Context, id string, totalWorkflows int, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.TotalWorkflows = totalWorkflows
	source.LastSyncedAt = &syncedAt
	source.LastSyncError = ""
	source.UpdatedAt = time.Now()
	s.sources[id] = source
	return nil
}

// RecordSyncError stores the source-level error message.
func (s *SourceStore) RecordSyncError(_ context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.LastSyncError = message
	source.UpdatedAt = time.Now()
	s.sources[id] = source
	return nil
}
