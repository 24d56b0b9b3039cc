package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
	"github.com/7and1/difyrun/internal/core/ports/driving"
	"github.com/7and1/difyrun/internal/dsl"
	"github.com/7and1/difyrun/internal/logger"
)

// SourceSyncTimeout bounds one source's sync pass. A stuck source fails
// alone instead of pinning the whole run.
const SourceSyncTimeout = 10 * time.Minute

// Ensure SyncService implements the interface.
var _ driving.CatalogSyncer = (*SyncService)(nil)

// SyncService reconciles the workflow catalog against its configured
// sources.
type SyncService struct {
	sourceStore   driven.SourceStore
	workflowStore driven.WorkflowStore
	categoryStore driven.CategoryStore
	fetcher       driven.RepoFetcher

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewSyncService creates a new catalog sync service.
func NewSyncService(
	sourceStore driven.SourceStore,
	workflowStore driven.WorkflowStore,
	categoryStore driven.CategoryStore,
	fetcher driven.RepoFetcher,
) *SyncService {
	return &SyncService{
		sourceStore:   sourceStore,
		workflowStore: workflowStore,
		categoryStore: categoryStore,
		fetcher:       fetcher,
		activeSyncs:   make(map[string]*driving.SyncStatus),
	}
}

// SyncAll reconciles every active source in weight order, one at a
// time. Sequential on purpose: sources share one API quota, and a
// failing source should not starve the others of it.
func (s *SyncService) SyncAll(ctx context.Context) (*domain.SyncResult, error) {
	start := time.Now()

	sources, err := s.sourceStore.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, domain.ErrNoActiveSources
	}

	result := &domain.SyncResult{Success: true}
	for _, source := range sources {
		counts, err := s.syncSource(ctx, source)
		result.Merge(counts)
		if err != nil {
			result.Success = false
			result.Errors++
			logger.Warn("sync %s failed: %v", source.ID, err)
			s.recordFailure(ctx, source.ID, err)
			continue
		}
		s.recordSuccess(ctx, source.ID)
	}

	s.refreshCategories(ctx, result)

	result.Duration = time.Since(start)
	result.Timestamp = time.Now()
	logger.Info("sync complete: %d added, %d updated, %d unchanged, %d deleted, %d errors in %s",
		result.Added, result.Updated, result.Unchanged, result.Deleted, result.Errors, result.Duration)
	return result, nil
}

// SyncOne reconciles a single source by ID.
func (s *SyncService) SyncOne(ctx context.Context, sourceID string) (*domain.SyncResult, error) {
	start := time.Now()

	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if !source.Active {
		return nil, fmt.Errorf("%s: %w", sourceID, domain.ErrSourceInactive)
	}

	result := &domain.SyncResult{Success: true}
	counts, err := s.syncSource(ctx, *source)
	result.Merge(counts)
	if err != nil {
		result.Success = false
		s.recordFailure(ctx, sourceID, err)
		result.Duration = time.Since(start)
		result.Timestamp = time.Now()
		return result, fmt.Errorf("sync %s: %w", sourceID, err)
	}
	s.recordSuccess(ctx, sourceID)

	s.refreshCategories(ctx, result)

	result.Duration = time.Since(start)
	result.Timestamp = time.Now()
	return result, nil
}

// Status returns sync status for a source.
func (s *SyncService) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, ok := s.activeSyncs[sourceID]; ok {
		// Return a copy to avoid race conditions
		return &driving.SyncStatus{
			SourceID:       status.SourceID,
			Running:        status.Running,
			FilesProcessed: status.FilesProcessed,
			ErrorCount:     status.ErrorCount,
		}, nil
	}

	// Not running - return idle status
	return &driving.SyncStatus{
		SourceID: sourceID,
		Running:  false,
	}, nil
}

// syncSource runs one source's full reconciliation pass: list, fetch,
// parse, diff against stored fingerprints, write the difference.
func (s *SyncService) syncSource(ctx context.Context, source domain.Source) (domain.SourceSyncCounts, error) {
	var counts domain.SourceSyncCounts

	if !s.beginSync(source.ID) {
		return counts, fmt.Errorf("%s: %w", source.ID, domain.ErrSyncInProgress)
	}
	defer s.endSync(source.ID)

	ctx, cancel := context.WithTimeout(ctx, SourceSyncTimeout)
	defer cancel()

	logger.Section(fmt.Sprintf("Sync %s", source.ID))

	candidates, err := s.fetcher.ListCandidates(ctx, source)
	if err != nil {
		return counts, fmt.Errorf("list candidates: %w", err)
	}
	logger.Info("%s: %d candidate files", source.ID, len(candidates))

	// Bulk fingerprint preload. One query up front is what makes the
	// unchanged path zero-write.
	known, err := s.workflowStore.ListFingerprints(ctx, source.ID)
	if err != nil {
		return counts, fmt.Errorf("list fingerprints: %w", err)
	}
	knownHashes := make(map[string]string, len(known))
	for _, ref := range known {
		knownHashes[ref.Slug] = ref.ContentHash
	}

	contents, err := s.fetcher.FetchContents(ctx, source, candidates)
	if err != nil {
		return counts, fmt.Errorf("fetch contents: %w", err)
	}

	seenSlugs := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return counts, err
		}

		content, ok := contents[candidate.Path]
		if !ok {
			// Fetch already logged the cause.
			counts.Errors++
			s.bumpStatus(source.ID, false)
			continue
		}

		outcome := s.reconcileFile(ctx, source, candidate, content, knownHashes, seenSlugs)
		switch outcome {
		case outcomeAdded:
			counts.Added++
		case outcomeUpdated:
			counts.Updated++
		case outcomeUnchanged:
			counts.Unchanged++
		case outcomeError:
			counts.Errors++
		}
		s.bumpStatus(source.ID, outcome != outcomeError)
	}

	if source.Prune {
		deleted, err := s.pruneStale(ctx, source.ID, knownHashes, seenSlugs)
		if err != nil {
			return counts, fmt.Errorf("prune: %w", err)
		}
		counts.Deleted = deleted
	}

	logger.Info("%s: %d added, %d updated, %d unchanged, %d deleted, %d errors",
		source.ID, counts.Added, counts.Updated, counts.Unchanged, counts.Deleted, counts.Errors)
	return counts, nil
}

type fileOutcome int

const (
	outcomeError fileOutcome = iota
	outcomeAdded
	outcomeUpdated
	outcomeUnchanged
)

// reconcileFile decides one file's fate: insert, update, or leave alone.
func (s *SyncService) reconcileFile(
	ctx context.Context,
	source domain.Source,
	candidate domain.FileCandidate,
	content string,
	knownHashes map[string]string,
	seenSlugs map[string]bool,
) fileOutcome {
	hash := dsl.Fingerprint(content)
	slug := dsl.Slug(source.ID, candidate.Path)
	if seenSlugs[slug] {
		// Two files in one pass cleaned down to the same slug. The
		// hash suffix keeps both; the warning tells the operator to
		// rename one upstream.
		disambiguated := slug + "-" + hash[:8]
		logger.Warn("%s: slug collision on %q (%s), using %q",
			source.ID, slug, candidate.Path, disambiguated)
		slug = disambiguated
	}
	// Marked seen even if parsing fails below, so a file that turns
	// unparseable keeps its existing record out of the prune pass.
	seenSlugs[slug] = true

	// Unchanged means byte-identical, which makes parsing redundant too.
	knownHash, exists := knownHashes[slug]
	if exists && knownHash == hash {
		return outcomeUnchanged
	}

	parsed := dsl.Parse(content)
	if parsed == nil {
		logger.Warn("%s: %s: unparseable, skipped", source.ID, candidate.Path)
		return outcomeError
	}

	now := time.Now()
	wf := &domain.Workflow{
		// A fresh ID every time; the store keeps the existing one when
		// the slug already has a row.
		ID:                uuid.NewString(),
		Slug:              slug,
		Name:              dsl.DisplayName(parsed.Name, candidate.Path),
		Description:       parsed.Description,
		CategoryID:        dsl.InferCategory(candidate.Path, parsed),
		Tags:              dsl.MergeTags(source.DefaultTags, dsl.InferTags(candidate.Path, parsed)),
		SourceID:          source.ID,
		FilePath:          candidate.Path,
		GitHubURL:         source.FileURL(candidate.Path),
		RawURL:            source.RawFileURL(candidate.Path),
		DSLContent:        content,
		ContentHash:       hash,
		DifyVersion:       parsed.Version,
		AppMode:           parsed.Mode,
		NodeCount:         parsed.NodeCount,
		NodeTypes:         parsed.NodeTypes,
		HasKnowledgeBase:  parsed.HasKnowledgeBase,
		HasToolNodes:      parsed.HasToolNodes,
		HasValidPositions: parsed.HasValidPositions,
		SyncedAt:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.workflowStore.Upsert(ctx, wf); err != nil {
		logger.Warn("%s: %s: save failed: %v", source.ID, candidate.Path, err)
		return outcomeError
	}

	if exists {
		logger.Debug("%s: updated %s", source.ID, slug)
		return outcomeUpdated
	}
	logger.Debug("%s: added %s", source.ID, slug)
	return outcomeAdded
}

// pruneStale deletes workflows whose file vanished from the source.
func (s *SyncService) pruneStale(
	ctx context.Context,
	sourceID string,
	knownHashes map[string]string,
	seenSlugs map[string]bool,
) (int, error) {
	var stale []string
	for slug := range knownHashes {
		if !seenSlugs[slug] {
			stale = append(stale, slug)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	deleted, err := s.workflowStore.DeleteBySlugs(ctx, sourceID, stale)
	if err != nil {
		return 0, err
	}
	logger.Info("%s: pruned %d stale workflows", sourceID, deleted)
	return deleted, nil
}

// recordSuccess writes a source's post-sync bookkeeping.
func (s *SyncService) recordSuccess(ctx context.Context, sourceID string) {
	total, err := s.workflowStore.CountBySource(ctx, sourceID)
	if err != nil {
		logger.Warn("count workflows for %s: %v", sourceID, err)
		return
	}
	if err := s.sourceStore.RecordSyncSuccess(ctx, sourceID, total, time.Now()); err != nil {
		logger.Warn("record sync success for %s: %v", sourceID, err)
	}
}

// recordFailure stores the source-level error for later inspection.
func (s *SyncService) recordFailure(ctx context.Context, sourceID string, cause error) {
	if err := s.sourceStore.RecordSyncError(ctx, sourceID, cause.Error()); err != nil {
		logger.Warn("record sync error for %s: %v", sourceID, err)
	}
}

// refreshCategories recomputes category counts after a run. Count drift
// is worth a warning but never fails a sync that already landed.
func (s *SyncService) refreshCategories(ctx context.Context, result *domain.SyncResult) {
	if err := s.categoryStore.RefreshCounts(ctx); err != nil {
		logger.Warn("refresh category counts: %v", err)
		result.Success = false
	}
}

// beginSync registers a source's in-flight status. It reports false if
// a sync for the source is already running.
func (s *SyncService) beginSync(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.activeSyncs[sourceID]; ok && status.Running {
		return false
	}
	s.activeSyncs[sourceID] = &driving.SyncStatus{
		SourceID: sourceID,
		Running:  true,
	}
	return true
}

// endSync clears a source's in-flight status.
func (s *SyncService) endSync(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeSyncs, sourceID)
}

// bumpStatus advances a source's progress counters.
func (s *SyncService) bumpStatus(sourceID string, processed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.activeSyncs[sourceID]
	if !ok {
		return
	}
	if processed {
		status.FilesProcessed++
	} else {
		status.ErrorCount++
	}
}
