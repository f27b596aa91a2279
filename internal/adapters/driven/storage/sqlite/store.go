package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vidmirror/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vidmirror/data/mappings.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vidmirror", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mappings.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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

// MappingStore returns a MappingStore interface backed by this store.
func (s *Store) MappingStore() driven.MappingStore {
	return &mappingStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting current version: %w", err)
	}
	return version, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
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

	currentVersion, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
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

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Mapping Store ====================

// mappingStore implements driven.MappingStore.
type mappingStore struct {
	store *Store
}

var _ driven.MappingStore = (*mappingStore)(nil)

// Get retrieves the mapping for a Source reference.
func (s *mappingStore) Get(ctx context.Context, sourceVideoRef string) (*domain.VideoMapping, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_video_ref, target_video_id, target_streaming_ref, title, updated_at
		FROM video_mappings WHERE source_video_ref = ?
	`, sourceVideoRef)

	return scanMapping(row)
}

// Upsert inserts the mapping or overwrites the row with the same key.
func (s *mappingStore) Upsert(ctx context.Context, mapping domain.VideoMapping) error {
	if mapping.SourceVideoRef == "" {
		return domain.ErrInvalidInput
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO video_mappings (source_video_ref, target_video_id, target_streaming_ref, title, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_video_ref) DO UPDATE SET
			target_video_id = excluded.target_video_id,
			target_streaming_ref = excluded.target_streaming_ref,
			title = excluded.title,
			updated_at = excluded.updated_at
	`, mapping.SourceVideoRef, nullString(mapping.TargetVideoID), nullString(mapping.TargetStreamingRef),
		nullString(mapping.Title), mapping.UpdatedAt.UnixNano())

	if err != nil {
		return fmt.Errorf("upserting mapping: %w", err)
	}
	return nil
}

// List returns mappings ordered by most recent update.
func (s *mappingStore) List(ctx context.Context, limit int) ([]domain.VideoMapping, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_video_ref, target_video_id, target_streaming_ref, title, updated_at
		FROM video_mappings
		ORDER BY updated_at DESC, source_video_ref ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.VideoMapping //nolint:prealloc // size unknown from query
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}
	return mappings, nil
}

// Count returns the number of stored mappings.
func (s *mappingStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM video_mappings").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting mappings: %w", err)
	}
	return count, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, started_at, ended_at, status, folders_visited, folders_created,
	videos_seen, videos_matched, videos_already_mapped, videos_created, videos_unmatched, skips, error`

// SaveRun stores or updates a run report.
func (s *runStore) SaveRun(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.ID == "" {
		return domain.ErrInvalidInput
	}

	skips := report.Skips
	if skips == nil {
		skips = []domain.Skip{}
	}
	skipsJSON, err := json.Marshal(skips)
	if err != nil {
		return fmt.Errorf("marshalling skips: %w", err)
	}

	var endedAt sql.NullInt64
	if !report.EndedAt.IsZero() {
		endedAt = sql.NullInt64{Int64: report.EndedAt.UnixNano(), Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO mirror_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			status = excluded.status,
			folders_visited = excluded.folders_visited,
			folders_created = excluded.folders_created,
			videos_seen = excluded.videos_seen,
			videos_matched = excluded.videos_matched,
			videos_already_mapped = excluded.videos_already_mapped,
			videos_created = excluded.videos_created,
			videos_unmatched = excluded.videos_unmatched,
			skips = excluded.skips,
			error = excluded.error
	`, report.ID, report.StartedAt.UnixNano(), endedAt, string(report.Status),
		report.FoldersVisited, report.FoldersCreated, report.VideosSeen, report.VideosMatched,
		report.VideosAlreadyMapped, report.VideosCreated, report.VideosUnmatched,
		string(skipsJSON), report.Error)

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run.
func (s *runStore) LastRun(ctx context.Context) (*domain.RunReport, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM mirror_runs
		ORDER BY started_at DESC LIMIT 1
	`)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM mirror_runs
		ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(row scanner) (*domain.VideoMapping, error) {
	var m domain.VideoMapping
	var targetID, streamingRef, title sql.NullString
	var updatedAt int64

	if err := row.Scan(&m.SourceVideoRef, &targetID, &streamingRef, &title, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning mapping: %w", err)
	}

	m.TargetVideoID = stringPtr(targetID)
	m.TargetStreamingRef = stringPtr(streamingRef)
	m.Title = stringPtr(title)
	m.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &m, nil
}

func scanRun(row scanner) (*domain.RunReport, error) {
	var r domain.RunReport
	var startedAt int64
	var endedAt sql.NullInt64
	var status, skipsJSON string

	if err := row.Scan(&r.ID, &startedAt, &endedAt, &status,
		&r.FoldersVisited, &r.FoldersCreated, &r.VideosSeen, &r.VideosMatched,
		&r.VideosAlreadyMapped, &r.VideosCreated, &r.VideosUnmatched,
		&skipsJSON, &r.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	r.StartedAt = time.Unix(0, startedAt).UTC()
	if endedAt.Valid {
		r.EndedAt = time.Unix(0, endedAt.Int64).UTC()
	}
	r.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(skipsJSON), &r.Skips); err != nil {
		return nil, fmt.Errorf("unmarshalling skips: %w", err)
	}
	return &r, nil
}

// nullString converts an optional string to sql.NullString.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
