package domain

// FileCandidate is a listed DSL file from a source, not yet fetched.
// It exists only for the duration of one sync pass.
type FileCandidate struct {
	// Path is relative to the repository root.
	Path string

	// SHA is the upstream blob hash, an opaque version marker.
	SHA string

	// Size is the file size in bytes as reported by the listing.
	Size int64

	// RawURL resolves to the file's raw content.
	RawURL string
}
