package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source represents a configured upstream GitHub repository of workflow
// DSL files. Sources are created and edited by operators; the sync
// pipeline only reads them and records bookkeeping after each run.
type Source struct {
	// ID is the unique identifier for the source. It prefixes every
	// slug derived from this source's files.
	ID string

	// Name is the human-readable name for this source.
	Name string

	// Description is an optional operator-facing description.
	Description string

	// Owner is the GitHub repository owner (user or organisation).
	Owner string

	// Repo is the GitHub repository name.
	Repo string

	// Branch is the branch to sync from. Defaults to "main".
	Branch string

	// RootPath restricts scanning to paths under this prefix.
	// Empty means the whole repository.
	RootPath string

	// ExcludePaths lists substrings; any file path containing one
	// of them is skipped.
	ExcludePaths []string

	// DefaultTags are applied to every workflow from this source,
	// ahead of inferred tags.
	DefaultTags []string

	// Weight orders sources for display. Higher sorts first.
	Weight int

	// Featured marks the source for the featured listing.
	Featured bool

	// Active controls whether SyncAll includes this source.
	Active bool

	// Prune removes workflows whose file disappeared upstream.
	// Off by default: a vanished file usually means a repo reshuffle,
	// and keeping the catalog entry is the safer failure mode.
	Prune bool

	// TotalWorkflows is the count recorded after the last sync.
	TotalWorkflows int

	// LastSyncedAt is when the last sync of this source completed,
	// nil if it has never been synced.
	LastSyncedAt *time.Time

	// LastSyncError holds the most recent source-level error message,
	// empty after a clean sync.
	LastSyncError string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source configuration was last updated.
	UpdatedAt time.Time
}

// Validate checks that the source has the fields the pipeline needs.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: source ID is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Owner) == "" || strings.TrimSpace(s.Repo) == "" {
		return fmt.Errorf("%w: source %s: owner and repo are required", ErrInvalidInput, s.ID)
	}
	return nil
}

// FullName returns the "owner/repo" coordinate.
func (s *Source) FullName() string {
	return s.Owner + "/" + s.Repo
}

// Ref returns the branch to sync from, defaulting to main.
func (s *Source) Ref() string {
	if s.Branch == "" {
		return "main"
	}
	return s.Branch
}

// FileURL returns the human-browsable GitHub URL for a file path.
func (s *Source) FileURL(path string) string {
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", s.Owner, s.Repo, s.Ref(), path)
}

// RawFileURL returns the raw-content URL for a file path.
func (s *Source) RawFileURL(path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", s.Owner, s.Repo, s.Ref(), path)
}
