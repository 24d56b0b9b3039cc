package driven

import (
	"context"

	"github.com/7and1/difyrun/internal/core/domain"
)

// RepoFetcher lists and retrieves DSL files from an upstream repository
// host. Any remote source of versioned text files with a listing+fetch
// API satisfies this contract; the shipped implementation talks to
// GitHub.
type RepoFetcher interface {
	// ListCandidates returns the source's matching files from one bulk
	// recursive listing call. An empty slice (never nil) means nothing
	// matched. An error is fatal for the source's sync.
	ListCandidates(ctx context.Context, src domain.Source) ([]domain.FileCandidate, error)

	// FetchContents retrieves file bodies keyed by path, with a
	// bounded number of fetches in flight. A file that fails to fetch
	// is logged and omitted from the result; it never fails the batch.
	FetchContents(ctx context.Context, src domain.Source, candidates []domain.FileCandidate) (map[string]string, error)
}
