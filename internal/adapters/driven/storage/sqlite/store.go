package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/7and1/difyrun/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all catalog store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.difyrun/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".difyrun", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Seed the fixed category set
	if err := s.seedCategories(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding categories: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// WorkflowStore returns a WorkflowStore interface backed by this store.
func (s *Store) WorkflowStore() driven.WorkflowStore {
	return &workflowStore{store: s}
}

// CategoryStore returns a CategoryStore interface backed by this store.
func (s *Store) CategoryStore() driven.CategoryStore {
	return &categoryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// seedCategories upserts the fixed category set, refreshing the static
// display columns but leaving workflow_count alone.
func (s *Store) seedCategories() error {
	for _, c := range domain.Categories() {
		_, err := s.db.Exec(`
			INSERT INTO categories (id, name, name_cn, slug, description, icon, color, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				name_cn = excluded.name_cn,
				slug = excluded.slug,
				description = excluded.description,
				icon = excluded.icon,
				color = excluded.color,
				sort_order = excluded.sort_order
		`, c.ID, c.Name, c.NameCN, c.Slug, c.Description, c.Icon, c.Color, c.SortOrder)
		if err != nil {
			return fmt.Errorf("seeding category %s: %w", c.ID, err)
		}
	}
	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	excludeJSON, err := json.Marshal(emptyNotNil(source.ExcludePaths))
	if err != nil {
		return fmt.Errorf("marshalling exclude paths: %w", err)
	}
	tagsJSON, err := json.Marshal(emptyNotNil(source.DefaultTags))
	if err != nil {
		return fmt.Errorf("marshalling default tags: %w", err)
	}

	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sources
			(id, name, description, owner, repo, branch, root_path, exclude_paths,
			 default_tags, weight, featured, active, prune, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			owner = excluded.owner,
			repo = excluded.repo,
			branch = excluded.branch,
			root_path = excluded.root_path,
			exclude_paths = excluded.exclude_paths,
			default_tags = excluded.default_tags,
			weight = excluded.weight,
			featured = excluded.featured,
			active = excluded.active,
			prune = excluded.prune,
			updated_at = excluded.updated_at
	`, source.ID, source.Name, source.Description, source.Owner, source.Repo,
		source.Branch, source.RootPath, string(excludeJSON), string(tagsJSON),
		source.Weight, source.Featured, source.Active, source.Prune,
		source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

const sourceColumns = `id, name, description, owner, repo, branch, root_path, exclude_paths,
	default_tags, weight, featured, active, prune, total_workflows,
	last_synced_at, last_sync_error, created_at, updated_at`

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)

	source, err := scanSource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return source, err
}

// Delete removes a source.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns sources ordered by descending weight.
func (s *sourceStore) List(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY weight DESC, id ASC`

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// RecordSyncSuccess updates a source's post-sync bookkeeping.
func (s *sourceStore) RecordSyncSuccess(ctx context.Context, id string, totalWorkflows int, syncedAt time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sources
		SET total_workflows = ?, last_synced_at = ?, last_sync_error = '', updated_at = ?
		WHERE id = ?
	`, totalWorkflows, syncedAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("recording sync success: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordSyncError stores the source-level error message.
func (s *sourceStore) RecordSyncError(ctx context.Context, id string, message string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sources SET last_sync_error = ?, updated_at = ? WHERE id = ?
	`, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("recording sync error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanSource scans one source row through the given Scan function.
func scanSource(scan func(...any) error) (*domain.Source, error) {
	var source domain.Source
	var excludeJSON, tagsJSON string
	var lastSyncedAt sql.NullTime

	err := scan(&source.ID, &source.Name, &source.Description, &source.Owner,
		&source.Repo, &source.Branch, &source.RootPath, &excludeJSON, &tagsJSON,
		&source.Weight, &source.Featured, &source.Active, &source.Prune,
		&source.TotalWorkflows, &lastSyncedAt, &source.LastSyncError,
		&source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	if err := json.Unmarshal([]byte(excludeJSON), &source.ExcludePaths); err != nil {
		return nil, fmt.Errorf("unmarshalling exclude paths: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &source.DefaultTags); err != nil {
		return nil, fmt.Errorf("unmarshalling default tags: %w", err)
	}
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		source.LastSyncedAt = &t
	}

	return &source, nil
}

// ==================== Workflow Store ====================

// workflowStore implements driven.WorkflowStore.
type workflowStore struct {
	store *Store
}

var _ driven.WorkflowStore = (*workflowStore)(nil)

// Upsert inserts or updates a workflow keyed by slug. On conflict the
// row keeps its id, engagement counters, and created_at; everything
// content-derived is overwritten.
func (s *workflowStore) Upsert(ctx context.Context, wf *domain.Workflow) error {
	tagsJSON, err := json.Marshal(emptyNotNil(wf.Tags))
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	typesJSON, err := json.Marshal(emptyNotNil(wf.NodeTypes))
	if err != nil {
		return fmt.Errorf("marshalling node types: %w", err)
	}

	now := time.Now().UTC()
	createdAt := wf.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO workflows
			(id, slug, name, description, category_id, tags, source_id, file_path,
			 github_url, raw_url, dsl_content, content_hash, dify_version, app_mode,
			 node_count, node_types, has_knowledge_base, has_tool_nodes,
			 has_valid_positions, github_updated_at, synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category_id = excluded.category_id,
			tags = excluded.tags,
			source_id = excluded.source_id,
			file_path = excluded.file_path,
			github_url = excluded.github_url,
			raw_url = excluded.raw_url,
			dsl_content = excluded.dsl_content,
			content_hash = excluded.content_hash,
			dify_version = excluded.dify_version,
			app_mode = excluded.app_mode,
			node_count = excluded.node_count,
			node_types = excluded.node_types,
			has_knowledge_base = excluded.has_knowledge_base,
			has_tool_nodes = excluded.has_tool_nodes,
			has_valid_positions = excluded.has_valid_positions,
			github_updated_at = excluded.github_updated_at,
			synced_at = excluded.synced_at,
			updated_at = excluded.updated_at
	`, wf.ID, wf.Slug, wf.Name, wf.Description, wf.CategoryID, string(tagsJSON),
		wf.SourceID, wf.FilePath, wf.GitHubURL, wf.RawURL, wf.DSLContent,
		wf.ContentHash, wf.DifyVersion, wf.AppMode, wf.NodeCount, string(typesJSON),
		wf.HasKnowledgeBase, wf.HasToolNodes, wf.HasValidPositions,
		nullTime(wf.GitHubUpdatedAt), wf.SyncedAt.UTC(), createdAt, now)

	if err != nil {
		return fmt.Errorf("saving workflow: %w", err)
	}
	return nil
}

const workflowColumns = `id, slug, name, description, category_id, tags, source_id, file_path,
	github_url, raw_url, dsl_content, content_hash, dify_version, app_mode,
	node_count, node_types, has_knowledge_base, has_tool_nodes, has_valid_positions,
	view_count, download_count, works_count, broken_count,
	github_updated_at, synced_at, created_at, updated_at`

// GetBySlug retrieves a workflow by its slug.
func (s *workflowStore) GetBySlug(ctx context.Context, slug string) (*domain.Workflow, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE slug = ?`, slug)

	wf, err := scanWorkflow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return wf, err
}

// ListFingerprints returns the (slug, content hash) pairs for a source.
func (s *workflowStore) ListFingerprints(ctx context.Context, sourceID string) ([]domain.FingerprintRef, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT slug, content_hash FROM workflows WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.FingerprintRef, 0)
	for rows.Next() {
		var ref domain.FingerprintRef
		if err := rows.Scan(&ref.Slug, &ref.ContentHash); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprints: %w", err)
	}

	return refs, nil
}

// ListBySource returns all workflows for a source, ordered by slug.
func (s *workflowStore) ListBySource(ctx context.Context, sourceID string) ([]domain.Workflow, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE source_id = ? ORDER BY slug`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow //nolint:prealloc // size unknown from query
	for rows.Next() {
		wf, err := scanWorkflow(rows.Scan)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workflows: %w", err)
	}

	return workflows, nil
}

// DeleteBySlugs removes workflows by slug within a source.
func (s *workflowStore) DeleteBySlugs(ctx context.Context, sourceID string, slugs []string) (int, error) {
	if len(slugs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(slugs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(slugs)+1)
	args = append(args, sourceID)
	for _, slug := range slugs {
		args = append(args, slug)
	}

	res, err := s.store.db.ExecContext(ctx,
		`DELETE FROM workflows WHERE source_id = ? AND slug IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting workflows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted workflows: %w", err)
	}
	return int(n), nil
}

// CountBySource returns the number of workflows for a source.
func (s *workflowStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflows WHERE source_id = ?`, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting workflows: %w", err)
	}
	return count, nil
}

// scanWorkflow scans one workflow row through the given Scan function.
func scanWorkflow(scan func(...any) error) (*domain.Workflow, error) {
	var wf domain.Workflow
	var tagsJSON, typesJSON string
	var githubUpdatedAt sql.NullTime

	err := scan(&wf.ID, &wf.Slug, &wf.Name, &wf.Description, &wf.CategoryID,
		&tagsJSON, &wf.SourceID, &wf.FilePath, &wf.GitHubURL, &wf.RawURL,
		&wf.DSLContent, &wf.ContentHash, &wf.DifyVersion, &wf.AppMode,
		&wf.NodeCount, &typesJSON, &wf.HasKnowledgeBase, &wf.HasToolNodes,
		&wf.HasValidPositions, &wf.ViewCount, &wf.DownloadCount, &wf.WorksCount,
		&wf.BrokenCount, &githubUpdatedAt, &wf.SyncedAt, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning workflow: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &wf.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	if err := json.Unmarshal([]byte(typesJSON), &wf.NodeTypes); err != nil {
		return nil, fmt.Errorf("unmarshalling node types: %w", err)
	}
	if githubUpdatedAt.Valid {
		t := githubUpdatedAt.Time
		wf.GitHubUpdatedAt = &t
	}

	return &wf, nil
}

// ==================== Category Store ====================

// categoryStore implements driven.CategoryStore.
type categoryStore struct {
	store *Store
}

var _ driven.CategoryStore = (*categoryStore)(nil)

// List returns all categories in display order.
func (s *categoryStore) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, name_cn, slug, description, icon, color, sort_order, workflow_count
		FROM categories ORDER BY sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NameCN, &c.Slug, &c.Description,
			&c.Icon, &c.Color, &c.SortOrder, &c.WorkflowCount); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}

// RefreshCounts recomputes every category's workflow count in one pass.
func (s *categoryStore) RefreshCounts(ctx context.Context) error {
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE categories SET workflow_count = (
			SELECT COUNT(*) FROM workflows WHERE workflows.category_id = categories.id
		)
	`)
	if err != nil {
		return fmt.Errorf("refreshing category counts: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// emptyNotNil maps a nil slice to an empty one so it serialises as [].
func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullTime maps a nil time pointer to SQL NULL.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
