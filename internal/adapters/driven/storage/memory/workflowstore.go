package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
)

// Ensure WorkflowStore implements the interface.
var _ driven.WorkflowStore = (*WorkflowStore)(nil)

// WorkflowStore is an in-memory implementation of driven.WorkflowStore.
// It counts inserts and updates separately so tests can assert that an
// unchanged sync pass performed zero writes.
type WorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]domain.Workflow // keyed by slug

	inserts int
	updates int
}

// NewWorkflowStore creates a new in-memory workflow store.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{
		workflows: make(map[string]domain.Workflow),
	}
}

// Upsert inserts or updates a workflow keyed by slug. On update the
// existing row's ID, engagement counters, and CreatedAt are preserved.
func (s *WorkflowStore) Upsert(_ context.Context, wf *domain.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *wf
	now := time.Now()

	if existing, ok := s.workflows[wf.Slug]; ok {
		stored.ID = existing.ID
		stored.ViewCount = existing.ViewCount
		stored.DownloadCount = existing.DownloadCount
		stored.WorksCount = existing.WorksCount
		stored.BrokenCount = existing.BrokenCount
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = now
		s.updates++
	} else {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		s.inserts++
	}

	s.workflows[wf.Slug] = stored
	return nil
}

// GetBySlug retrieves a workflow by its slug.
func (s *WorkflowStore) GetBySlug(_ context.Context, slug string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &wf, nil
}

// ListFingerprints returns the (slug, content hash) pairs for a source.
func (s *WorkflowStore) ListFingerprints(_ context.Context, sourceID string) ([]domain.FingerprintRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]domain.FingerprintRef, 0)
	for _, wf := range s.workflows {
		if wf.SourceID == sourceID {
			refs = append(refs, domain.FingerprintRef{Slug: wf.Slug, ContentHash: wf.ContentHash})
		}
	}
	return refs, nil
}

// ListBySource returns all workflows for a source, ordered by slug.
func (s *WorkflowStore) ListBySource(_ context.Context, sourceID string) ([]domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Workflow, 0)
	for _, wf := range s.workflows {
		if wf.SourceID == sourceID {
			result = append(result, wf)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

// DeleteBySlugs removes workflows by slug within a source.
func (s *WorkflowStore) DeleteBySlugs(_ context.Context, sourceID string, slugs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, slug := range slugs {
		if wf, ok := s.workflows[slug]; ok && wf.SourceID == sourceID {
			delete(s.workflows, slug)
			deleted++
		}
	}
	return deleted, nil
}

// CountBySource returns the number of workflows for a source.
func (s *WorkflowStore) CountBySource(_ context.Context, sourceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, wf := range s.workflows {
		if wf.SourceID == sourceID {
			count++
		}
	}
	return count, nil
}

// WriteCounts reports inserts and updates performed so far. Test hook.
func (s *WorkflowStore) WriteCounts() (inserts, updates int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inserts, s.updates
}
