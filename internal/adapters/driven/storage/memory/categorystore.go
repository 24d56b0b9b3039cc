package memory

import (
	"context"
	"sync"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
)

// Ensure CategoryStore implements the interface.
var _ driven.CategoryStore = (*CategoryStore)(nil)

// CategoryStore is an in-memory implementation of driven.CategoryStore.
// It recomputes counts from the workflow store it was created with.
type CategoryStore struct {
	mu         sync.RWMutex
	categories []domain.Category
	workflows  *WorkflowStore
}

// NewCategoryStore creates a category store seeded with the fixed
// category set, counting against the given workflow store.
func NewCategoryStore(workflows *WorkflowStore) *CategoryStore {
	return &CategoryStore{
		categories: domain.Categories(),
		workflows:  workflows,
	}
}

// List returns all categories in display order.
func (s *CategoryStore) List(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Category, len(s.categories))
	copy(result, s.categories)
	return result, nil
}

// RefreshCounts recomputes every category's workflow count.
func (s *CategoryStore) RefreshCounts(_ context.Context) error {
	counts := make(map[string]int)

	s.workflows.mu.RLock()
	for _, wf := range s.workflows.workflows {
		counts[wf.CategoryID]++
	}
	s.workflows.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		s.categories[i].WorkflowCount = counts[s.categories[i].ID]
	}
	return nil
}
