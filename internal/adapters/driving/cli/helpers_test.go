package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driving"
)

// stubSyncer is a canned CatalogSyncer for command tests.
type stubSyncer struct {
	result     *domain.SyncResult
	err        error
	lastSource string
	allCalls   int
}

func (s *stubSyncer) SyncAll(_ context.Context) (*domain.SyncResult, error) {
	s.allCalls++
	return s.result, s.err
}

func (s *stubSyncer) SyncOne(_ context.Context, sourceID string) (*domain.SyncResult, error) {
	s.lastSource = sourceID
	return s.result, s.err
}

func (s *stubSyncer) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{SourceID: sourceID}, nil
}

// stubSourceManager is an in-memory SourceManager for command tests.
type stubSourceManager struct {
	sources map[string]domain.Source
	err     error
}

func newStubSourceManager(sources ...domain.Source) *stubSourceManager {
	m := &stubSourceManager{sources: make(map[string]domain.Source)}
	for _, src := range sources {
		m.sources[src.ID] = src
	}
	return m
}

func (m *stubSourceManager) Add(_ context.Context, source domain.Source) error {
	if m.err != nil {
		return m.err
	}
	m.sources[source.ID] = source
	return nil
}

func (m *stubSourceManager) Get(_ context.Context, id string) (*domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	src, ok := m.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &src, nil
}

func (m *stubSourceManager) List(_ context.Context, activeOnly bool) ([]domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Source, 0, len(m.sources))
	for _, src := range m.sources {
		if activeOnly && !src.Active {
			continue
		}
		out = append(out, src)
	}
	return out, nil
}

func (m *stubSourceManager) Update(_ context.Context, source domain.Source) error {
	if m.err != nil {
		return m.err
	}
	m.sources[source.ID] = source
	return nil
}

func (m *stubSourceManager) Remove(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.sources[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sources, id)
	return nil
}

func (m *stubSourceManager) Seed(_ context.Context, sources []domain.Source) error {
	for _, src := range sources {
		m.sources[src.ID] = src
	}
	return nil
}

// setupTestServices wires stub services into the command vars and
// returns the stubs plus a cleanup restoring the previous wiring.
func setupTestServices() (*stubSyncer, *stubSourceManager, func()) {
	oldSyncer := catalogSyncer
	oldSources := sourceManager
	oldScheduler := catalogScheduler
	oldWatch := watchSources

	syncer := &stubSyncer{
		result: &domain.SyncResult{
			SourceSyncCounts: domain.SourceSyncCounts{Added: 2, Updated: 1, Unchanged: 3},
			Success:          true,
			Duration:         42 * time.Millisecond,
			Timestamp:        time.Now(),
		},
	}
	sources := newStubSourceManager(domain.Source{
		ID:     "hub",
		Name:   "Hub",
		Owner:  "acme",
		Repo:   "templates",
		Active: true,
	})

	SetServices(Services{Syncer: syncer, Sources: sources})

	cleanup := func() {
		catalogSyncer = oldSyncer
		sourceManager = oldSources
		catalogScheduler = oldScheduler
		watchSources = oldWatch
	}
	return syncer, sources, cleanup
}

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var _ driving.CatalogSyncer = (*stubSyncer)(nil)
var _ driving.SourceManager = (*stubSourceManager)(nil)
