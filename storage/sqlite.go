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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/observability/health"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
)

// DefaultTokenizer is the FTS tokenizer used when none is configured.
const DefaultTokenizer = "unicode61"

// TokenizerTrigram is the CJK-safe tokenizer.
const TokenizerTrigram = "trigram"

// SQLiteConfig contains SQLite engine configuration.
type SQLiteConfig struct {
	// Path is the database file location. ":memory:" opens an
	// in-memory database.
	Path string

	// Tokenizer selects the FTS5 tokenizer: unicode61 (default),
	// porter, trigram, or any tokenizer string SQLite accepts.
	Tokenizer string

	// BusyTimeout is how long a locked database is retried.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// Bus receives storage events. Optional.
	Bus *events.Bus

	// Index is the vector index consulted by Search and semantic
	// queries. Optional; without it those paths return empty results.
	Index *hnsw.Index

	// Logger receives structured logs. Optional.
	Logger logging.Logger
}

// SQLiteEngine is the canonical single-file storage engine.
type SQLiteEngine struct {
	mu          sync.Mutex // single logical write lock
	db          *sql.DB
	config      SQLiteConfig
	initialized bool
}

// NewSQLiteEngine creates a new engine. Initialize must be called
// before any other operation.
func NewSQLiteEngine(config *SQLiteConfig) *SQLiteEngine {
	cfg := SQLiteConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Tokenizer == "" {
		cfg.Tokenizer = DefaultTokenizer
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewStructuredLogger(logging.LevelInfo)
	}
	return &SQLiteEngine{config: cfg}
}

// Tokenizer reports the active FTS tokenizer configuration.
func (s *SQLiteEngine) Tokenizer() TokenizerInfo {
	return TokenizerInfo{
		ActiveTokenizer: s.config.Tokenizer,
		IsCJKOptimized:  s.config.Tokenizer == TokenizerTrigram,
	}
}

// Initialize opens the database, creates tables, and runs additive
// migrations. Idempotent and re-entrant: double calls return success.
func (s *SQLiteEngine) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if s.config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.config.Path), 0o755); err != nil {
			return errors.ErrStorageConnection.Wrap(err)
		}
	}

	// _journal_mode=WAL: readers do not block the writer
	// _busy_timeout: wait for locks instead of failing immediately
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		s.config.Path, s.config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.ErrStorageConnection.Wrap(err)
	}

	// One connection: the engine is the single writer and the driver
	// serializes access on it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return errors.ErrStore.WithMessage("create tables").Wrap(err)
	}
	if _, err := db.ExecContext(ctx, ftsCreate(s.config.Tokenizer)); err != nil {
		db.Close()
		return errors.ErrStore.WithMessage("create fts table").Wrap(err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return errors.ErrStore.WithMessage("run migrations").Wrap(err)
	}

	s.db = db
	s.initialized = true

	s.config.Logger.Info(ctx, "storage initialized",
		logging.String("path", s.config.Path),
		logging.String("tokenizer", s.config.Tokenizer),
	)
	return nil
}

// Close releases the database connection.
func (s *SQLiteEngine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.initialized = false
	return err
}

// ready guards operations issued before Initialize.
func (s *SQLiteEngine) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.ErrNotInitialized
	}
	return nil
}

const entryColumns = `id, key, content, type, namespace, tags, metadata, embedding,
	created_at, updated_at, last_accessed_at, version, access_count, access_level, refs`

func scanEntry(row interface{ Scan(...interface{}) error }) (*types.Entry, error) {
	var (
		e                    types.Entry
		tags, metadata, refs string
		accessLevel          sql.NullString
		embedding            []byte
	)
	err := row.Scan(
		&e.ID, &e.Key, &e.Content, &e.Type, &e.Namespace, &tags, &metadata, &embedding,
		&e.CreatedAt, &e.UpdatedAt, &e.LastAccessedAt, &e.Version, &e.AccessCount,
		&accessLevel, &refs,
	)
	if err != nil {
		return nil, err
	}

	e.Tags = decodeStringList(tags)
	e.Metadata = decodeMetadata(metadata)
	e.References = decodeStringList(refs)
	e.Embedding = decodeEmbedding(embedding)
	if accessLevel.Valid {
		e.AccessLevel = types.AccessLevel(accessLevel.String)
	}
	return &e, nil
}

// Store upserts an entry by id inside one transaction, keeping the
// FTS row in sync.
func (s *SQLiteEngine) Store(ctx context.Context, entry *types.Entry) error {
	if err := s.ready(); err != nil {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	// (namespace, key) must not be bound to a different id.
	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE namespace = ? AND key = ?`,
		entry.Namespace, entry.Key,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return errors.ErrStore.Wrap(err)
	}
	if existingID != "" && existingID != entry.ID {
		return errors.ErrConflict.
			WithDetail("namespace", entry.Namespace).
			WithDetail("key", entry.Key).
			WithDetail("existingId", existingID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, key, content, type, namespace, tags, metadata, embedding,
			created_at, updated_at, last_accessed_at, version, access_count, access_level, refs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key = excluded.key,
			content = excluded.content,
			type = excluded.type,
			namespace = excluded.namespace,
			tags = excluded.tags,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at,
			version = entries.version + 1,
			access_level = excluded.access_level,
			refs = excluded.refs`,
		entry.ID, entry.Key, entry.Content, string(entryType(entry)), entry.Namespace,
		encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
		encodeEmbedding(entry.Embedding),
		entry.CreatedAt, entry.UpdatedAt, entry.LastAccessedAt,
		entry.Version, entry.AccessCount, string(accessLevel(entry)),
		encodeJSON(entry.References, "[]"),
	)
	if err != nil {
		return errors.ErrStore.WithMessage("upsert entry").Wrap(err)
	}

	if err := s.syncFTSRow(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventEntryStored, entry.ID)
	return nil
}

func entryType(e *types.Entry) types.MemoryType {
	if e.Type == "" {
		return types.MemorySemantic
	}
	return e.Type
}

func accessLevel(e *types.Entry) types.AccessLevel {
	if e.AccessLevel == "" {
		return types.AccessProject
	}
	return e.AccessLevel
}

// syncFTSRow replaces the FTS row of an entry inside a transaction.
func (s *SQLiteEngine) syncFTSRow(ctx context.Context, tx *sql.Tx, entry *types.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts WHERE id = ?`, entry.ID); err != nil {
		return errors.ErrStore.WithMessage("clear fts row").Wrap(err)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO entries_fts (id, content, key, tags) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Content, entry.Key, strings.Join(entry.Tags, " "),
	)
	if err != nil {
		return errors.ErrStore.WithMessage("insert fts row").Wrap(err)
	}
	return nil
}

// Get returns an entry by id and records the access.
func (s *SQLiteEngine) Get(ctx context.Context, id string) (*types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.getWhere(ctx, `id = ?`, id)
}

// GetByKey returns an entry by its (namespace, key) pair and records
// the access.
func (s *SQLiteEngine) GetByKey(ctx context.Context, namespace, key string) (*types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.getWhere(ctx, `namespace = ? AND key = ?`, namespace, key)
}

func (s *SQLiteEngine) getWhere(ctx context.Context, where string, args ...interface{}) (*types.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE `+where, args...)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	now := types.NowMillis()
	_, err = tx.ExecContext(ctx,
		`UPDATE entries SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`,
		now, entry.ID)
	if err != nil {
		return nil, errors.ErrStore.WithMessage("touch entry").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.ErrTxFailed.Wrap(err)
	}

	entry.AccessCount++
	entry.LastAccessedAt = now
	return entry, nil
}

// Update applies a partial update. The version increments and
// updatedAt is refreshed; unknown ids fail with ErrNotFound.
func (s *SQLiteEngine) Update(ctx context.Context, id string, patch *types.EntryPatch) (*types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, errors.ErrInvalidInput.WithMessage("patch is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
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
		UPDATE entries SET content = ?, type = ?, tags = ?, metadata = ?, embedding = ?,
			updated_at = ?, version = ?, access_level = ?, refs = ?
		WHERE id = ?`,
		entry.Content, string(entryType(entry)),
		encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
		encodeEmbedding(entry.Embedding),
		entry.UpdatedAt, entry.Version, string(accessLevel(entry)),
		encodeJSON(entry.References, "[]"), id,
	)
	if err != nil {
		return nil, errors.ErrStore.WithMessage("update entry").Wrap(err)
	}

	if err := s.syncFTSRow(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventEntryUpdated, id)
	return entry, nil
}

// Delete removes an entry and its FTS row.
func (s *SQLiteEngine) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, errors.ErrStore.Wrap(err)
	}
	affected, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts WHERE id = ?`, id); err != nil {
		return false, errors.ErrStore.WithMessage("delete fts row").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return false, errors.ErrTxFailed.Wrap(err)
	}

	if affected > 0 {
		s.publish(events.EventEntryDeleted, id)
		return true, nil
	}
	return false, nil
}

// BulkInsert stores all entries in one transaction, all or nothing,
// and emits one aggregate event.
func (s *SQLiteEngine) BulkInsert(ctx context.Context, entries []*types.Entry) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := types.NowMillis()
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
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		var existingID string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE namespace = ? AND key = ?`,
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
			INSERT OR REPLACE INTO entries (id, key, content, type, namespace, tags, metadata,
				embedding, created_at, updated_at, last_accessed_at, version, access_count,
				access_level, refs)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Key, entry.Content, string(entryType(entry)), entry.Namespace,
			encodeJSON(entry.Tags, "[]"), encodeJSON(entry.Metadata, "{}"),
			encodeEmbedding(entry.Embedding),
			entry.CreatedAt, entry.UpdatedAt, entry.LastAccessedAt,
			entry.Version, entry.AccessCount, string(accessLevel(entry)),
			encodeJSON(entry.References, "[]"),
		)
		if err != nil {
			return errors.ErrStore.WithMessage("bulk insert").Wrap(err)
		}
		if err := s.syncFTSRow(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventEntriesBulk, len(entries))
	return nil
}

// BulkDelete removes the given ids in one transaction and returns the
// count removed.
func (s *SQLiteEngine) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	count := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
		if err != nil {
			return 0, errors.ErrStore.Wrap(err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			count++
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts WHERE id = ?`, id); err != nil {
			return 0, errors.ErrStore.Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventEntriesBulk, count)
	return count, nil
}

// ListNamespaces returns the namespaces currently in use.
func (s *SQLiteEngine) ListNamespaces(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
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

// Count returns the entry count, optionally restricted to one
// namespace.
func (s *SQLiteEngine) Count(ctx context.Context, namespace string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var (
		count int64
		err   error
	)
	if namespace == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entries WHERE namespace = ?`, namespace).Scan(&count)
	}
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	return count, nil
}

// ClearNamespace deletes all entries of a namespace.
func (s *SQLiteEngine) ClearNamespace(ctx context.Context, namespace string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if namespace == "" {
		return 0, errors.ErrInvalidInput.WithMessage("namespace cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries_fts WHERE id IN (SELECT id FROM entries WHERE namespace = ?)`,
		namespace); err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE namespace = ?`, namespace)
	if err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	affected, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventEntriesBulk, int(affected))
	return int(affected), nil
}

// GetStats summarizes the stored entries. MemoryUsage is the database
// footprint reported by SQLite.
func (s *SQLiteEngine) GetStats(ctx context.Context) (*types.StorageStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	stats := &types.StorageStats{
		EntriesByNamespace: make(map[string]int64),
		EntriesByType:      make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&stats.TotalEntries); err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	rows, err := s.db.QueryContext(ctx,
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

	rows, err = s.db.QueryContext(ctx,
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

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err == nil {
			stats.MemoryUsage = pageCount * pageSize
		}
	}

	return stats, nil
}

// HealthCheck probes the database with a trivial query.
func (s *SQLiteEngine) HealthCheck(ctx context.Context) health.CheckResult {
	result := health.CheckResult{Name: "storage"}

	if err := s.ready(); err != nil {
		result.Status = health.StatusUnhealthy
		result.Message = "not initialized"
		return result
	}

	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		result.Status = health.StatusUnhealthy
		result.Message = err.Error()
		return result
	}

	count, err := s.Count(ctx, "")
	if err != nil {
		result.Status = health.StatusDegraded
		result.Message = err.Error()
		return result
	}

	result.Status = health.StatusHealthy
	result.Details = map[string]interface{}{
		"entries":   count,
		"tokenizer": s.config.Tokenizer,
	}
	return result
}

// RebuildFTSIndex drops and repopulates the FTS table from the
// canonical entry rows.
func (s *SQLiteEngine) RebuildFTSIndex(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts`); err != nil {
		return errors.ErrStore.WithMessage("clear fts table").Wrap(err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, content, key, tags FROM entries`)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}

	type ftsRow struct {
		id, content, key string
		tags             []string
	}
	var pending []ftsRow
	for rows.Next() {
		var r ftsRow
		var tags string
		if err := rows.Scan(&r.id, &r.content, &r.key, &tags); err != nil {
			rows.Close()
			return errors.ErrStore.Wrap(err)
		}
		r.tags = decodeStringList(tags)
		pending = append(pending, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.ErrStore.Wrap(err)
	}

	for _, r := range pending {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries_fts (id, content, key, tags) VALUES (?, ?, ?, ?)`,
			r.id, r.content, r.key, strings.Join(r.tags, " ")); err != nil {
			return errors.ErrStore.WithMessage("repopulate fts").Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventFTSRebuilt, len(pending))
	return nil
}

func (s *SQLiteEngine) publish(eventType events.EventType, payload interface{}) {
	if s.config.Bus != nil {
		s.config.Bus.Publish(eventType, payload)
	}
}
