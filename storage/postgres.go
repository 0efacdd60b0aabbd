// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/observability/health"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
)

// PostgresConfig contains PostgreSQL engine configuration.
type PostgresConfig struct {
	// Host is the database server host. Default "localhost".
	Host string

	// Port is the database server port. Default 5432.
	Port int

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// Database is the database name.
	Database string

	// SSLMode is the sslmode connection parameter. Default "disable".
	SSLMode string

	// Bus receives storage events. Optional.
	Bus *events.Bus

	// Index is the vector index consulted by Search. Optional.
	Index *hnsw.Index
}

// PostgresEngine implements Engine on PostgreSQL for shared-team
// deployments.
//
// Keyword and hybrid queries run on ILIKE rather than a dedicated
// full-text index, so keyword ranking degenerates to the recency
// tie-break; RebuildFTSIndex is a no-op. A hybrid query with content
// returns only rows whose content matches, not the SQLite engine's union
// of keyword hits and all filtered rows. EnsureSession publishes no
// session-started event and ClearNamespace publishes no event.
type PostgresEngine struct {
	mu          sync.Mutex
	db          *sql.DB
	config      PostgresConfig
	initialized bool
}

// NewPostgresEngine creates a new engine. Initialize must be called
// before any other operation.
func NewPostgresEngine(config *PostgresConfig) *PostgresEngine {
	cfg := PostgresConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return &PostgresEngine{config: cfg}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    key TEXT NOT NULL,
    content TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'semantic',
    namespace TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    metadata TEXT NOT NULL DEFAULT '{}',
    embedding BYTEA,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    last_accessed_at BIGINT NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    access_count INTEGER NOT NULL DEFAULT 0,
    access_level TEXT NOT NULL DEFAULT 'project',
    refs TEXT NOT NULL DEFAULT '[]',
    UNIQUE(namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_entries_namespace ON entries(namespace);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);

CREATE TABLE IF NOT EXISTS sessions (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT UNIQUE NOT NULL,
    project TEXT NOT NULL,
    prompt TEXT,
    started_at BIGINT NOT NULL,
    ended_at BIGINT,
    observation_count INTEGER NOT NULL DEFAULT 0,
    summary TEXT,
    status TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS user_prompts (
    session_id TEXT NOT NULL,
    prompt_number INTEGER NOT NULL,
    prompt_text TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE(session_id, prompt_number)
);

CREATE TABLE IF NOT EXISTS observations (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    project TEXT NOT NULL,
    tool_name TEXT NOT NULL,
    tool_input TEXT,
    tool_response TEXT,
    cwd TEXT,
    timestamp BIGINT NOT NULL,
    type TEXT NOT NULL DEFAULT 'other',
    title TEXT,
    subtitle TEXT,
    narrative TEXT,
    files_read TEXT NOT NULL DEFAULT '[]',
    files_modified TEXT NOT NULL DEFAULT '[]',
    facts TEXT NOT NULL DEFAULT '[]',
    concepts TEXT NOT NULL DEFAULT '[]',
    prompt_number INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS session_summaries (
    session_id TEXT NOT NULL,
    project TEXT NOT NULL,
    request TEXT,
    completed TEXT,
    files_read TEXT NOT NULL DEFAULT '[]',
    files_modified TEXT NOT NULL DEFAULT '[]',
    next_steps TEXT,
    notes TEXT NOT NULL DEFAULT '[]',
    prompt_number INTEGER NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);
`

// Initialize opens the connection and creates tables. Idempotent.
func (p *PostgresEngine) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.config.Host, p.config.Port, p.config.User,
		p.config.Password, p.config.Database, p.config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return errors.ErrStorageConnection.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.ErrStorageConnection.Wrap(err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return errors.ErrStore.WithMessage("create tables").Wrap(err)
	}

	p.db = db
	p.initialized = true
	return nil
}

// Close releases the connection pool.
func (p *PostgresEngine) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.initialized = false
	return err
}

func (p *PostgresEngine) ready() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return errors.ErrNotInitialized
	}
	return nil
}

// isUniqueViolation reports a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// Store upserts an entry by id.
func (p *PostgresEngine) Store(ctx context.Context, entry *types.Entry) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := types.ValidateEntry(entry); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = types.GenerateEntryID()
	}

	now := types.NowMillis()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt == 0 {
		entry.UpdatedAt = now
	}
	if entry.Version == 0 {
		entry.Version = 1
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE namespace = $1 AND key = $2`,
		entry.Namespace, entry.Key,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return errors.ErrStore.Wrap(err)
	}
	if existingID != "" && existingID != entry.ID {
		return errors.ErrConflict.
			WithDetail("namespace", entry.Namespace).
			WithDetail("key", entry.Key)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, key, content, type, namespace, tags, metadata, embedding,
			created_at, updated_at, last_accessed_at, version, access_count, access_level, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			key = EXCLUDED.key,
			content = EXCLUDED.content,
			type = EXCLUDED.type,
			namespace = EXCLUDED.namespace,
			tags = EXCLUDED.tags,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at,
			version = entries.version + 1,
			access_level = EXCLUDED.access_level,
			refs = EXCLUDED.refs`,
		entry.ID, entry.Key, entry.Content, string(entryType(entry)), entry.Namespace,
		encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
		encodeEmbedding(entry.Embedding),
		entry.CreatedAt, entry.UpdatedAt, entry.LastAccessedAt,
		entry.Version, entry.AccessCount, string(accessLevel(entry)),
		encodeJSON(entry.References, "[]"),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrConflict.Wrap(err)
		}
		return errors.ErrStore.WithMessage("upsert entry").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	p.publish(events.EventEntryStored, entry.ID)
	return nil
}

const pgEntryColumns = `id, key, content, type, namespace, tags, metadata, embedding,
	created_at, updated_at, last_accessed_at, version, access_count, access_level, refs`

// Get returns an entry by id and records the access.
func (p *PostgresEngine) Get(ctx context.Context, id string) (*types.Entry, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	return p.getWhere(ctx, `id = $1`, id)
}

// GetByKey returns an entry by its (namespace, key) pair.
func (p *PostgresEngine) GetByKey(ctx context.Context, namespace, key string) (*types.Entry, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	return p.getWhere(ctx, `namespace = $1 AND key = $2`, namespace, key)
}

func (p *PostgresEngine) getWhere(ctx context.Context, where string, args ...interface{}) (*types.Entry, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+pgEntryColumns+` FROM entries WHERE `+where, args...)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	now := types.NowMillis()
	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET access_count = access_count + 1, last_accessed_at = $1 WHERE id = $2`,
		now, entry.ID); err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.ErrTxFailed.Wrap(err)
	}

	entry.AccessCount++
	entry.LastAccessedAt = now
	return entry, nil
}

// Update applies a partial update.
func (p *PostgresEngine) Update(ctx context.Context, id string, patch *types.EntryPatch) (*types.Entry, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, errors.ErrInvalidInput.WithMessage("patch is nil")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+pgEntryColumns+` FROM entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	if patch.Content != nil {
		entry.Content = *patch.Content
	}
	if patch.Type != nil {
		entry.Type = *patch.Type
	}
	if patch.Tags != nil {
		entry.Tags = patch.Tags
	}
	if patch.Metadata != nil {
		entry.Metadata = patch.Metadata
	}
	if patch.Embedding != nil {
		entry.Embedding = patch.Embedding
	}
	if patch.AccessLevel != nil {
		entry.AccessLevel = *patch.AccessLevel
	}
	if patch.References != nil {
		entry.References = patch.References
	}

	if err := types.ValidateEntry(entry); err != nil {
		return nil, err
	}

	entry.Version++
	entry.UpdatedAt = types.NowMillis()

	_, err = tx.ExecContext(ctx, `
		UPDATE entries SET content = $1, type = $2, tags = $3, metadata = $4,
			embedding = $5, updated_at = $6, version = $7, access_level = $8, refs = $9
		WHERE id = $10`,
		entry.Content, string(entryType(entry)),
		encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
		encodeEmbedding(entry.Embedding),
		entry.UpdatedAt, entry.Version, string(accessLevel(entry)),
		encodeJSON(entry.References, "[]"), id,
	)
	if err != nil {
		return nil, errors.ErrStore.WithMessage("update entry").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.ErrTxFailed.Wrap(err)
	}

	p.publish(events.EventEntryUpdated, id)
	return entry, nil
}

// Delete removes an entry.
func (p *PostgresEngine) Delete(ctx context.Context, id string) (bool, error) {
	if err := p.ready(); err != nil {
		return false, err
	}

	res, err := p.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return false, errors.ErrStore.Wrap(err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		p.publish(events.EventEntryDeleted, id)
		return true, nil
	}
	return false, nil
}

// BulkInsert stores all entries in one transaction, all or nothing.
func (p *PostgresEngine) BulkInsert(ctx context.Context, entries []*types.Entry) error {
	if err := p.ready(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := types.NowMillis()
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		if err := types.ValidateEntry(entry); err != nil {
			return err
		}
		if entry.ID == "" {
			entry.ID = types.GenerateEntryID()
		}
		if entry.CreatedAt == 0 {
			entry.CreatedAt = now
		}
		if entry.UpdatedAt == 0 {
			entry.UpdatedAt = now
		}
		if entry.Version == 0 {
			entry.Version = 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO entries (id, key, content, type, namespace, tags, metadata,
				embedding, created_at, updated_at, last_accessed_at, version,
				access_count, access_level, refs)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			entry.ID, entry.Key, entry.Content, string(entryType(entry)), entry.Namespace,
			encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
			encodeEmbedding(entry.Embedding),
			entry.CreatedAt, entry.UpdatedAt, entry.LastAccessedAt,
			entry.Version, entry.AccessCount, string(accessLevel(entry)),
			encodeJSON(entry.References, "[]"),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.ErrConflict.Wrap(err)
			}
			return errors.ErrStore.WithMessage("bulk insert").Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	p.publish(events.EventEntriesBulk, len(entries))
	return nil
}

// BulkDelete removes the given ids in one transaction.
func (p *PostgresEngine) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := p.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	affected, _ := res.RowsAffected()

	p.publish(events.EventEntriesBulk, int(affected))
	return int(affected), nil
}

// pgFilterClause renders the shared filters with $n placeholders
// starting at the given offset.
func pgFilterClause(q *types.Query, start int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	n := start

	add := func(clause string, arg interface{}) {
		clauses = append(clauses, fmt.Sprintf(clause, n))
		args = append(args, arg)
		n++
	}

	if q.Namespace != "" {
		add("namespace = $%d", q.Namespace)
	}
	if q.MemoryType != "" {
		add("type = $%d", string(q.MemoryType))
	}
	for _, tag := range q.Tags {
		add("tags LIKE $%d", `%"`+tag+`"%`)
	}
	if q.CreatedBefore > 0 {
		add("created_at < $%d", q.CreatedBefore)
	}
	if q.CreatedAfter > 0 {
		add("created_at > $%d", q.CreatedAfter)
	}
	if q.Content != "" {
		add("content ILIKE $%d", "%"+q.Content+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " AND "), args
}

// Query runs the query compiler. Keyword mode matches on ILIKE; the
// bm25-style ranking of the SQLite engine is not available here, so
// results order by the recency tie-break.
func (p *PostgresEngine) Query(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errors.ErrInvalidInput.WithMessage("query is nil")
	}

	var (
		where []string
		args  []interface{}
	)

	switch q.Type {
	case types.QueryExact:
		where = append(where, "key = $1")
		args = append(args, q.Key)
	case types.QueryPrefix:
		where = append(where, "key LIKE $1")
		args = append(args, q.KeyPrefix+"%")
	case types.QueryKeyword:
		if q.Content == "" {
			return nil, errors.ErrInvalidInput.WithMessage("keyword query requires content")
		}
		where = append(where, "(content ILIKE $1 OR key ILIKE $1 OR tags ILIKE $1)")
		args = append(args, "%"+q.Content+"%")
	case types.QuerySemantic:
		return p.querySemantic(ctx, q)
	case types.QueryHybrid:
		where = append(where, "1=1")
	default:
		return nil, errors.ErrInvalidInput.WithDetail("type", string(q.Type))
	}

	filtered := *q
	if q.Type == types.QueryKeyword {
		// Content already consumed by the match clause.
		filtered.Content = ""
	}
	if clause, filterArgs := pgFilterClause(&filtered, len(args)+1); clause != "" {
		where = append(where, clause)
		args = append(args, filterArgs...)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM entries WHERE %s ORDER BY updated_at DESC, id ASC LIMIT $%d`,
		pgEntryColumns, strings.Join(where, " AND "), len(args)+1,
	)
	args = append(args, q.EffectiveLimit())

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var results []*types.QueryResult
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		results = append(results, &types.QueryResult{Entry: entry})
	}
	return results, rows.Err()
}

func (p *PostgresEngine) querySemantic(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	if len(q.QueryEmbedding) == 0 {
		return nil, errors.ErrInvalidInput.WithMessage("semantic query requires queryEmbedding")
	}

	hits, err := p.Search(ctx, q.QueryEmbedding, &types.SearchOptions{
		K:          q.EffectiveLimit(),
		Namespace:  q.Namespace,
		MemoryType: q.MemoryType,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*types.QueryResult, 0, len(hits))
	for _, hit := range hits {
		if !matchesResidualFilters(hit.Entry, q) {
			continue
		}
		results = append(results, &types.QueryResult{Entry: hit.Entry, Score: hit.Similarity})
	}
	return results, nil
}

// Search delegates to the HNSW index, mirroring the SQLite engine.
func (p *PostgresEngine) Search(ctx context.Context, queryVector []float32, opts *types.SearchOptions) ([]*types.SearchResult, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if p.config.Index == nil {
		return []*types.SearchResult{}, nil
	}
	if opts == nil {
		opts = &types.SearchOptions{K: types.DefaultQueryLimit}
	}
	k := opts.K
	if k <= 0 {
		k = types.DefaultQueryLimit
	}

	fetch := k
	if opts.Namespace != "" || opts.MemoryType != "" {
		fetch = k * 4
	}

	hits, err := p.config.Index.Search(queryVector, fetch)
	if err != nil {
		return nil, err
	}

	metric := p.config.Index.Metric()
	results := make([]*types.SearchResult, 0, k)
	for _, hit := range hits {
		if len(results) >= k {
			break
		}

		row := p.db.QueryRowContext(ctx,
			`SELECT `+pgEntryColumns+` FROM entries WHERE id = $1`, hit.ID)
		entry, err := scanEntry(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}

		if opts.Namespace != "" && entry.Namespace != opts.Namespace {
			continue
		}
		if opts.MemoryType != "" && entry.Type != opts.MemoryType {
			continue
		}

		similarity := hnsw.Similarity(metric, hit.Distance)
		if opts.Threshold > 0 && similarity < opts.Threshold {
			continue
		}

		results = append(results, &types.SearchResult{
			Entry:      entry,
			Distance:   hit.Distance,
			Similarity: similarity,
		})
	}
	return results, nil
}

// ListNamespaces returns the namespaces currently in use.
func (p *PostgresEngine) ListNamespaces(ctx context.Context) ([]string, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT DISTINCT namespace FROM entries ORDER BY namespace`)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var namespaces []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

// Count returns the entry count.
func (p *PostgresEngine) Count(ctx context.Context, namespace string) (int64, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}

	var (
		count int64
		err   error
	)
	if namespace == "" {
		err = p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	} else {
		err = p.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entries WHERE namespace = $1`, namespace).Scan(&count)
	}
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	return count, nil
}

// ClearNamespace deletes all entries of a namespace.
func (p *PostgresEngine) ClearNamespace(ctx context.Context, namespace string) (int, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}
	if namespace == "" {
		return 0, errors.ErrInvalidInput.WithMessage("namespace cannot be empty")
	}

	res, err := p.db.ExecContext(ctx,
		`DELETE FROM entries WHERE namespace = $1`, namespace)
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// GetStats summarizes the stored entries.
func (p *PostgresEngine) GetStats(ctx context.Context) (*types.StorageStats, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	stats := &types.StorageStats{
		EntriesByNamespace: make(map[string]int64),
		EntriesByType:      make(map[string]int64),
	}

	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&stats.TotalEntries); err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT namespace, COUNT(*) FROM entries GROUP BY namespace`)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	for rows.Next() {
		var ns string
		var count int64
		if err := rows.Scan(&ns, &count); err != nil {
			rows.Close()
			return nil, errors.ErrStore.Wrap(err)
		}
		stats.EntriesByNamespace[ns] = count
	}
	rows.Close()

	rows, err = p.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM entries GROUP BY type`)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	for rows.Next() {
		var typ string
		var count int64
		if err := rows.Scan(&typ, &count); err != nil {
			rows.Close()
			return nil, errors.ErrStore.Wrap(err)
		}
		stats.EntriesByType[typ] = count
	}
	rows.Close()

	var size int64
	if err := p.db.QueryRowContext(ctx,
		`SELECT pg_total_relation_size('entries')`).Scan(&size); err == nil {
		stats.MemoryUsage = size
	}

	return stats, nil
}

// HealthCheck probes the database.
func (p *PostgresEngine) HealthCheck(ctx context.Context) health.CheckResult {
	result := health.CheckResult{Name: "storage"}

	if err := p.ready(); err != nil {
		result.Status = health.StatusUnhealthy
		result.Message = "not initialized"
		return result
	}
	if err := p.db.PingContext(ctx); err != nil {
		result.Status = health.StatusUnhealthy
		result.Message = err.Error()
		return result
	}

	result.Status = health.StatusHealthy
	return result
}

// RebuildFTSIndex is a no-op: the Postgres engine matches keywords on
// ILIKE and keeps no parallel text index.
func (p *PostgresEngine) RebuildFTSIndex(ctx context.Context) error {
	return p.ready()
}

// Tokenizer reports that no FTS tokenizer is active.
func (p *PostgresEngine) Tokenizer() TokenizerInfo {
	return TokenizerInfo{ActiveTokenizer: "ilike", IsCJKOptimized: false}
}

func (p *PostgresEngine) publish(eventType events.EventType, payload interface{}) {
	if p.config.Bus != nil {
		p.config.Bus.Publish(eventType, payload)
	}
}
