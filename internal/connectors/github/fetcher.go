package github

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
	"github.com/7and1/difyrun/internal/logger"
)

// FetchConcurrency caps in-flight content fetches. The cap is shared by
// every source synced through the same Fetcher, so sequential sources
// can never burst above it.
const FetchConcurrency = 5

// Ensure Fetcher implements the port.
var _ driven.RepoFetcher = (*Fetcher)(nil)

// Fetcher lists and retrieves DSL files from GitHub repositories.
type Fetcher struct {
	client *Client

	// sem bounds concurrent blob fetches. One weighted semaphore for
	// the Fetcher's lifetime, not one per call.
	sem *semaphore.Weighted
}

// NewFetcher creates a fetcher backed by the given client.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{
		client: client,
		sem:    semaphore.NewWeighted(FetchConcurrency),
	}
}

// ListCandidates returns the source's matching DSL files.
//
// It issues exactly one recursive tree call per invocation. That is a
// deliberate rate-limit-conservation decision, not an incidental
// optimisation: a repository of N files costs one request instead of a
// directory walk's N-ish requests, which is what keeps a multi-thousand
// file source viable inside GitHub's hourly quota.
func (f *Fetcher) ListCandidates(ctx context.Context, src domain.Source) ([]domain.FileCandidate, error) {
	tree, err := f.client.GetTree(ctx, src.Owner, src.Repo, src.Ref())
	if err != nil {
		return nil, err
	}

	candidates := filterTree(tree.Entries, src)
	logger.Debug("%s: %d of %d tree entries are DSL candidates",
		src.FullName(), len(candidates), len(tree.Entries))
	return candidates, nil
}

// filterTree applies, in order: blob-only, YAML extension, root path
// prefix, and substring exclusion filters.
func filterTree(entries []*gh.TreeEntry, src domain.Source) []domain.FileCandidate {
	candidates := make([]domain.FileCandidate, 0, len(entries))

	for _, entry := range entries {
		if entry.GetType() != "blob" {
			continue
		}

		path := entry.GetPath()
		if !isYAMLPath(path) {
			continue
		}

		if src.RootPath != "" && !strings.HasPrefix(path, src.RootPath) {
			continue
		}

		if excluded(path, src.ExcludePaths) {
			continue
		}

		candidates = append(candidates, domain.FileCandidate{
			Path:   path,
			SHA:    entry.GetSHA(),
			Size:   int64(entry.GetSize()),
			RawURL: src.RawFileURL(path),
		})
	}

	return candidates
}

// isYAMLPath reports whether the path carries the recognised document
// extension, case-insensitively.
func isYAMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// excluded reports whether the path contains any exclusion substring.
func excluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if ex != "" && strings.Contains(path, ex) {
			return true
		}
	}
	return false
}

// FetchContents retrieves file bodies keyed by path. At most
// FetchConcurrency fetches are in flight at once; a file that fails to
// fetch is logged and omitted so its siblings still land. No retries:
// the next scheduled sync retries wholesale, and unchanged fingerprints
// make that cheap.
func (f *Fetcher) FetchContents(
	ctx context.Context, src domain.Source, candidates []domain.FileCandidate,
) (map[string]string, error) {
	contents := make(map[string]string, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, candidate := range candidates {
		if err := f.sem.Acquire(gctx, 1); err != nil {
			break // context cancelled; collect what finished
		}

		g.Go(func() error {
			defer f.sem.Release(1)

			text, err := f.fetchBlob(gctx, src, candidate)
			if err != nil {
				logger.Warn("%s: skipping %s: %v", src.ID, candidate.Path, err)
				return nil
			}

			mu.Lock()
			contents[candidate.Path] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return contents, err
	}
	if err := ctx.Err(); err != nil {
		return contents, err
	}
	return contents, nil
}

// fetchBlob fetches one file's content by blob SHA and decodes it.
func (f *Fetcher) fetchBlob(ctx context.Context, src domain.Source, c domain.FileCandidate) (string, error) {
	blob, err := f.client.GetBlob(ctx, src.Owner, src.Repo, c.SHA)
	if err != nil {
		return "", err
	}

	if blob.GetEncoding() == "base64" {
		raw := strings.ReplaceAll(blob.GetContent(), "\n", "")
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	return blob.GetContent(), nil
}
