package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Pool sizing.
const (
	maxConns = 10
	minConns = 1
)

// Store holds the pgx connection pool backing the mapping and run stores.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn: %w", domain.ErrInvalidInput)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("postgres store connected to %s", config.ConnConfig.Host)
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// MappingStore returns a MappingStore interface backed by this store.
func (s *Store) MappingStore() driven.MappingStore {
	return &mappingStore{pool: s.pool}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{pool: s.pool}
}

func (s *Store) migrate(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// ==================== Mapping Store ====================

type mappingStore struct {
	pool *pgxpool.Pool
}

var _ driven.MappingStore = (*mappingStore)(nil)

func (s *mappingStore) Get(ctx context.Context, sourceVideoRef string) (*domain.VideoMapping, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT source_video_ref, target_video_id, target_streaming_ref, title, updated_at
		FROM video_mappings WHERE source_video_ref = $1`, sourceVideoRef)

	var m domain.VideoMapping
	if err := row.Scan(&m.SourceVideoRef, &m.TargetVideoID, &m.TargetStreamingRef, &m.Title, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func (s *mappingStore) Upsert(ctx context.Context, mapping domain.VideoMapping) error {
	if mapping.SourceVideoRef == "" {
		return domain.ErrInvalidInput
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO video_mappings (source_video_ref, target_video_id, target_streaming_ref, title, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_video_ref) DO UPDATE SET
			target_video_id = EXCLUDED.target_video_id,
			target_streaming_ref = EXCLUDED.target_streaming_ref,
			title = EXCLUDED.title,
			updated_at = EXCLUDED.updated_at`,
		mapping.SourceVideoRef, mapping.TargetVideoID, mapping.TargetStreamingRef, mapping.Title, mapping.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

func (s *mappingStore) List(ctx context.Context, limit int) ([]domain.VideoMapping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source_video_ref, target_video_id, target_streaming_ref, title, updated_at
		FROM video_mappings
		ORDER BY updated_at DESC, source_video_ref ASC
		LIMIT $1`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var out []domain.VideoMapping
	for rows.Next() {
		var m domain.VideoMapping
		if err := rows.Scan(&m.SourceVideoRef, &m.TargetVideoID, &m.TargetStreamingRef, &m.Title, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		m.UpdatedAt = m.UpdatedAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *mappingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM video_mappings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return n, nil
}

// ==================== Run Store ====================

type runStore struct {
	pool *pgxpool.Pool
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, started_at, ended_at, status, folders_visited, folders_created,
	videos_seen, videos_matched, videos_already_mapped, videos_created, videos_unmatched, skips, error`

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
		return fmt.Errorf("marshal skips: %w", err)
	}

	var endedAt *time.Time
	if !report.EndedAt.IsZero() {
		endedAt = &report.EndedAt
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO mirror_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			status = EXCLUDED.status,
			folders_visited = EXCLUDED.folders_visited,
			folders_created = EXCLUDED.folders_created,
			videos_seen = EXCLUDED.videos_seen,
			videos_matched = EXCLUDED.videos_matched,
			videos_already_mapped = EXCLUDED.videos_already_mapped,
			videos_created = EXCLUDED.videos_created,
			videos_unmatched = EXCLUDED.videos_unmatched,
			skips = EXCLUDED.skips,
			error = EXCLUDED.error`,
		report.ID, report.StartedAt, endedAt, string(report.Status),
		report.FoldersVisited, report.FoldersCreated, report.VideosSeen, report.VideosMatched,
		report.VideosAlreadyMapped, report.VideosCreated, report.VideosUnmatched,
		string(skipsJSON), report.Error)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *runStore) LastRun(ctx context.Context) (*domain.RunReport, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM mirror_runs ORDER BY started_at DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return r, err
}

func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM mirror_runs ORDER BY started_at DESC LIMIT $1`,
		limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunReport
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (*domain.RunReport, error) {
	var r domain.RunReport
	var endedAt *time.Time
	var status string
	var skipsJSON []byte

	if err := row.Scan(&r.ID, &r.StartedAt, &endedAt, &status,
		&r.FoldersVisited, &r.FoldersCreated, &r.VideosSeen, &r.VideosMatched,
		&r.VideosAlreadyMapped, &r.VideosCreated, &r.VideosUnmatched,
		&skipsJSON, &r.Error); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	r.StartedAt = r.StartedAt.UTC()
	if endedAt != nil {
		r.EndedAt = endedAt.UTC()
	}
	r.Status = domain.RunStatus(status)
	if err := json.Unmarshal(skipsJSON, &r.Skips); err != nil {
		return nil, fmt.Errorf("unmarshal skips: %w", err)
	}
	return &r, nil
}

// limitArg maps a non-positive limit to NULL, which Postgres treats as no limit.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
