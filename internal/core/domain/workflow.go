package domain

import "time"

// Workflow is the durable catalog record for one ingested DSL document.
// Content-derived fields are overwritten on every content change; the
// engagement counters are only initialised here and mutated elsewhere.
type Workflow struct {
	// ID is an opaque unique identifier generated at first insert.
	// It never changes across updates.
	ID string

	// Slug is the deterministic natural key derived from the source ID
	// and the cleaned filename. Unique within a source.
	Slug string

	// Name is the display name: the app name declared in the DSL, or a
	// title-cased form of the filename when the DSL declares none.
	Name string

	// Description is the description declared in the DSL, if any.
	Description string

	// CategoryID references the inferred category.
	CategoryID string

	// Tags is the ordered tag list: source default tags followed by
	// inferred tags, deduplicated in first-seen order.
	Tags []string

	// SourceID references the Source this workflow was ingested from.
	SourceID string

	// FilePath is the file's path relative to the repository root.
	FilePath string

	// GitHubURL is the human-browsable link to the file.
	GitHubURL string

	// RawURL is the raw-content link to the file.
	RawURL string

	// DSLContent is the verbatim document text, never transformed.
	DSLContent string

	// ContentHash is the SHA-256 hex digest of DSLContent. Equal hashes
	// make re-ingestion a no-op.
	ContentHash string

	// DifyVersion is the format version declared in the DSL, if any.
	DifyVersion string

	// AppMode is the declared mode (chat, workflow, agent, ...).
	// Free-form: upstream introduces new modes over time.
	AppMode string

	// NodeCount is the number of node entries in the workflow graph.
	NodeCount int

	// NodeTypes is the deduplicated inventory of node type strings.
	NodeTypes []string

	// HasKnowledgeBase reports a knowledge-retrieval-capable node.
	HasKnowledgeBase bool

	// HasToolNodes reports a tool-invocation-capable node.
	HasToolNodes bool

	// HasValidPositions reports that every node carries layout
	// coordinates and at least the graph is not parked at the origin.
	HasValidPositions bool

	// Engagement counters. Initialised to zero on insert and preserved
	// on update; mutated by the web surface, not by the sync pipeline.
	ViewCount     int
	DownloadCount int
	WorksCount    int
	BrokenCount   int

	// GitHubUpdatedAt is the origin-side last-modified time, if known.
	GitHubUpdatedAt *time.Time

	// SyncedAt is when this record was last written by a sync.
	SyncedAt time.Time

	// CreatedAt is when the record was first inserted.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// FingerprintRef is a (slug, content hash) pair used for the bulk
// preload that drives the unchanged short-circuit during reconciliation.
type FingerprintRef struct {
	Slug        string
	ContentHash string
}
