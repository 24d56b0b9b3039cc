package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7and1/difyrun/internal/adapters/driven/storage/memory"
	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/dsl"
)

// fakeFetcher serves candidate lists and contents from memory, keyed by
// source ID.
type fakeFetcher struct {
	candidates map[string][]domain.FileCandidate
	contents   map[string]map[string]string
	listErr    map[string]error

	listCalls  int
	fetchCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		candidates: make(map[string][]domain.FileCandidate),
		contents:   make(map[string]map[string]string),
		listErr:    make(map[string]error),
	}
}

func (f *fakeFetcher) addFile(sourceID, path, content string) {
	f.candidates[sourceID] = append(f.candidates[sourceID], domain.FileCandidate{
		Path: path,
		SHA:  fmt.Sprintf("sha-%s", path),
	})
	if f.contents[sourceID] == nil {
		f.contents[sourceID] = make(map[string]string)
	}
	f.contents[sourceID][path] = content
}

func (f *fakeFetcher) removeFile(sourceID, path string) {
	kept := f.candidates[sourceID][:0]
	for _, c := range f.candidates[sourceID] {
		if c.Path != path {
			kept = append(kept, c)
		}
	}
	f.candidates[sourceID] = kept
	delete(f.contents[sourceID], path)
}

func (f *fakeFetcher) ListCandidates(_ context.Context, src domain.Source) ([]domain.FileCandidate, error) {
	f.listCalls++
	if err := f.listErr[src.ID]; err != nil {
		return nil, err
	}
	out := make([]domain.FileCandidate, len(f.candidates[src.ID]))
	copy(out, f.candidates[src.ID])
	return out, nil
}

func (f *fakeFetcher) FetchContents(_ context.Context, src domain.Source, candidates []domain.FileCandidate) (map[string]string, error) {
	f.fetchCalls++
	out := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if content, ok := f.contents[src.ID][c.Path]; ok {
			out[c.Path] = content
		}
	}
	return out, nil
}

type syncFixture struct {
	sources    *memory.SourceStore
	workflows  *memory.WorkflowStore
	categories *memory.CategoryStore
	fetcher    *fakeFetcher
	service    *SyncService
}

func newSyncFixture(t *testing.T, sources ...domain.Source) *syncFixture {
	t.Helper()

	f := &syncFixture{
		sources:   memory.NewSourceStore(),
		workflows: memory.NewWorkflowStore(),
		fetcher:   newFakeFetcher(),
	}
	f.categories = memory.NewCategoryStore(f.workflows)
	f.service = NewSyncService(f.sources, f.workflows, f.categories, f.fetcher)

	ctx := context.Background()
	for _, src := range sources {
		require.NoError(t, f.sources.Save(ctx, src))
	}
	return f
}

const chatFlowDSL = `app:
  name: Support Bot
  description: Answers support questions
  mode: advanced-chat
version: 0.1.5
workflow:
  nodes:
    - id: n1
      data:
        type: llm
        title: Answer
      position:
        x: 100
        y: 200
`

const ragFlowDSL = `app:
  name: Docs RAG
  mode: workflow
workflow:
  nodes:
    - id: n1
      data:
        type: knowledge-retrieval
      position:
        x: 50
        y: 60
    - id: n2
      data:
        type: llm
      position:
        x: 150
        y: 60
`

const toolFlowDSL = `app:
  name: Scraper
  mode: workflow
workflow:
  nodes:
    - id: n1
      data:
        type: http-request
      position:
        x: 10
        y: 20
`

func activeSource(id string) domain.Source {
	return domain.Source{ID: id, Name: id, Owner: "acme", Repo: "flows", Active: true}
}

func TestSyncOne_FirstSyncAddsAll(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "support-bot.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "docs-rag.yaml", ragFlowDSL)
	f.fetcher.addFile("hub", "scraper.yaml", toolFlowDSL)

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Added)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Unchanged)
	assert.Zero(t, result.Errors)

	wf, err := f.workflows.GetBySlug(ctx, "hub-support-bot")
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", wf.Name)
	assert.Equal(t, "advanced-chat", wf.AppMode)
	assert.Equal(t, dsl.Fingerprint(chatFlowDSL), wf.ContentHash)
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, "https://github.com/acme/flows/blob/main/support-bot.yaml", wf.GitHubURL)

	rag, err := f.workflows.GetBySlug(ctx, "hub-docs-rag")
	require.NoError(t, err)
	assert.True(t, rag.HasKnowledgeBase)
	assert.Equal(t, "rag", rag.CategoryID)
	assert.Equal(t, 2, rag.NodeCount)

	// Source bookkeeping reflects the pass.
	src, err := f.sources.Get(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 3, src.TotalWorkflows)
	assert.NotNil(t, src.LastSyncedAt)
	assert.Empty(t, src.LastSyncError)
}

func TestSyncOne_UnchangedIsZeroWrite(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "support-bot.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "docs-rag.yaml", ragFlowDSL)

	_, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)

	inserts, updates := f.workflows.WriteCounts()
	require.Equal(t, 2, inserts)
	require.Zero(t, updates)

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unchanged)
	assert.Zero(t, result.Added)
	assert.Zero(t, result.Updated)

	inserts, updates = f.workflows.WriteCounts()
	assert.Equal(t, 2, inserts, "second pass inserts nothing")
	assert.Zero(t, updates, "second pass updates nothing")
}

func TestSyncOne_ChangedContentUpdates(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "support-bot.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "docs-rag.yaml", ragFlowDSL)
	f.fetcher.addFile("hub", "scraper.yaml", toolFlowDSL)

	_, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)

	original, err := f.workflows.GetBySlug(ctx, "hub-support-bot")
	require.NoError(t, err)

	f.fetcher.contents["hub"]["support-bot.yaml"] = chatFlowDSL + "kind: app\n"

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Unchanged)
	assert.Zero(t, result.Added)

	updated, err := f.workflows.GetBySlug(ctx, "hub-support-bot")
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID, "identity survives content change")
	assert.NotEqual(t, original.ContentHash, updated.ContentHash)
}

func TestSyncOne_ParseFailureIsolated(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "good.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "bad.yaml", "app: [unclosed")

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err, "file-level failure is not a source-level failure")
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Errors)

	_, err = f.workflows.GetBySlug(ctx, "hub-good")
	assert.NoError(t, err)
	_, err = f.workflows.GetBySlug(ctx, "hub-bad")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOne_EmptyCandidateList(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.Total())

	src, err := f.sources.Get(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 0, src.TotalWorkflows)
	assert.NotNil(t, src.LastSyncedAt, "an empty repo still counts as synced")
}

func TestSyncOne_InactiveSourceRefused(t *testing.T) {
	src := activeSource("hub")
	src.Active = false
	f := newSyncFixture(t, src)

	_, err := f.service.SyncOne(context.Background(), "hub")
	assert.ErrorIs(t, err, domain.ErrSourceInactive)
}

func TestSyncOne_UnknownSource(t *testing.T) {
	f := newSyncFixture(t)
	_, err := f.service.SyncOne(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOne_SlugCollisionDisambiguated(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	// Distinct paths, same cleaned filename.
	f.fetcher.addFile("hub", "a/My Flow.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "b/my-flow.yml", ragFlowDSL)

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	_, err = f.workflows.GetBySlug(ctx, "hub-my-flow")
	assert.NoError(t, err)

	suffixed := "hub-my-flow-" + dsl.Fingerprint(ragFlowDSL)[:8]
	_, err = f.workflows.GetBySlug(ctx, suffixed)
	assert.NoError(t, err, "second file keeps a hash-suffixed slug")
}

func TestSyncOne_PruneRemovesStale(t *testing.T) {
	ctx := context.Background()
	src := activeSource("hub")
	src.Prune = true
	f := newSyncFixture(t, src)
	f.fetcher.addFile("hub", "keep.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "gone.yaml", ragFlowDSL)

	_, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)

	f.fetcher.removeFile("hub", "gone.yaml")

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Unchanged)

	_, err = f.workflows.GetBySlug(ctx, "hub-gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	src2, err := f.sources.Get(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 1, src2.TotalWorkflows)
}

func TestSyncOne_NoPruneByDefault(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "keep.yaml", chatFlowDSL)
	f.fetcher.addFile("hub", "gone.yaml", ragFlowDSL)

	_, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)

	f.fetcher.removeFile("hub", "gone.yaml")

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)

	_, err = f.workflows.GetBySlug(ctx, "hub-gone")
	assert.NoError(t, err, "vanished file keeps its catalog entry")
}

func TestSyncAll_SourceFailureIsolated(t *testing.T) {
	ctx := context.Background()
	a := activeSource("a")
	b := activeSource("b")
	a.Weight = 2 // a syncs first
	f := newSyncFixture(t, a, b)
	f.fetcher.listErr["a"] = errors.New("repository not found")
	f.fetcher.addFile("b", "flow.yaml", chatFlowDSL)

	result, err := f.service.SyncAll(ctx)
	require.NoError(t, err, "source-level failure never escapes SyncAll")
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Errors, "failed source counted in the aggregate")
	assert.Equal(t, 1, result.Added, "healthy source still synced")

	srcA, err := f.sources.Get(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, srcA.LastSyncError, "repository not found")

	srcB, err := f.sources.Get(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, srcB.LastSyncError)
}

func TestSyncAll_SkipsInactive(t *testing.T) {
	ctx := context.Background()
	on := activeSource("on")
	off := activeSource("off")
	off.Active = false
	f := newSyncFixture(t, on, off)
	f.fetcher.addFile("on", "flow.yaml", chatFlowDSL)
	f.fetcher.addFile("off", "flow.yaml", ragFlowDSL)

	result, err := f.service.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, f.fetcher.listCalls, "inactive source never listed")
}

func TestSyncAll_NoActiveSources(t *testing.T) {
	f := newSyncFixture(t)
	_, err := f.service.SyncAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveSources)
}

func TestSyncAll_RefreshesCategoryCounts(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "docs-rag.yaml", ragFlowDSL)

	_, err := f.service.SyncAll(ctx)
	require.NoError(t, err)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	for _, c := range list {
		if c.ID == "rag" {
			assert.Equal(t, 1, c.WorkflowCount)
		}
	}
}

func TestStatus_IdleSource(t *testing.T) {
	f := newSyncFixture(t)

	status, err := f.service.Status(context.Background(), "hub")
	require.NoError(t, err)
	assert.Equal(t, "hub", status.SourceID)
	assert.False(t, status.Running)
	assert.Zero(t, status.FilesProcessed)
}

func TestSyncOne_MissingContentCountsAsError(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, activeSource("hub"))
	f.fetcher.addFile("hub", "flow.yaml", chatFlowDSL)
	// A candidate the fetcher lists but cannot deliver content for.
	f.fetcher.candidates["hub"] = append(f.fetcher.candidates["hub"], domain.FileCandidate{
		Path: "phantom.yaml", SHA: "sha-phantom",
	})

	result, err := f.service.SyncOne(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Errors)
}
