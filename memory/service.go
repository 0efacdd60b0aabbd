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

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sage-x-project/memkit/adapters/llm"
	"github.com/sage-x-project/memkit/cache"
	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/observability/health"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/observability/metrics"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/storage"
)

// Service is the facade over storage, cache, and vector index.
type Service struct {
	engine   storage.Engine
	cache    *cache.Cache[*types.Entry]
	index    *hnsw.Index
	bus      *events.Bus
	logger   logging.Logger
	metrics  *metrics.StoreMetrics
	embedder llm.Embedder

	mu             sync.Mutex
	currentSession *types.Session
	initialized    bool
}

// New creates a service over the given engine.
func New(engine storage.Engine, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		logger: logging.NewStructuredLogger(logging.LevelInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize starts the bus and the storage engine. Idempotent.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if s.bus != nil {
		s.bus.Start()
	}
	if err := s.engine.Initialize(ctx); err != nil {
		return err
	}

	s.initialized = true
	return nil
}

// Shutdown drains components in order: cache stop, index drop,
// storage close, bus stop.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		s.cache.Shutdown()
	}
	if s.index != nil {
		s.index.Clear()
	}
	err := s.engine.Close()
	if s.bus != nil {
		s.bus.Stop()
	}

	s.initialized = false
	s.currentSession = nil
	s.logger.Info(ctx, "memory service shut down")
	return err
}

func idCacheKey(id string) string {
	return "id:" + id
}

func pairCacheKey(namespace, key string) string {
	return "key:" + namespace + "/" + key
}

// StoreEntry validates and persists an entry, computes a missing
// embedding when an embedder is configured, feeds the vector index,
// and invalidates stale cache copies. The current session id, when a
// session is active, is threaded into the entry metadata.
func (s *Service) StoreEntry(ctx context.Context, entry *types.Entry) error {
	start := time.Now()

	if err := types.ValidateEntry(entry); err != nil {
		return err
	}

	if session := s.GetCurrentSession(); session != nil {
		if entry.Metadata == nil {
			entry.Metadata = make(map[string]interface{})
		}
		if _, exists := entry.Metadata["sessionId"]; !exists {
			entry.Metadata["sessionId"] = session.SessionID
		}
	}

	if entry.Embedding == nil && s.embedder != nil {
		vectors, err := s.embedder.Embed(ctx, []string{entry.Content})
		if err != nil {
			// Embedding is best-effort: the entry is stored either way
			// and simply stays out of the vector index.
			s.logger.Warn(ctx, "embedding failed",
				logging.String("key", entry.Key),
				logging.Error(err),
			)
		} else if len(vectors) == 1 {
			entry.Embedding = vectors[0]
		}
	}

	if err := s.engine.Store(ctx, entry); err != nil {
		s.recordError("store", err)
		return err
	}

	if s.index != nil && entry.Embedding != nil {
		if err := s.index.AddPoint(entry.ID, entry.Embedding); err != nil {
			s.logger.Warn(ctx, "index insert failed",
				logging.String("id", entry.ID),
				logging.Error(err),
			)
		}
	}

	s.invalidateEntry(entry)
	s.recordOp("store", start)
	return nil
}

// Get returns an entry by id through the cache.
func (s *Service) Get(ctx context.Context, id string) (*types.Entry, error) {
	start := time.Now()
	defer s.recordOp("get", start)

	if s.cache == nil {
		return s.engine.Get(ctx, id)
	}

	entry, err := s.cache.GetOrSet(idCacheKey(id), func() (*types.Entry, error) {
		return s.engine.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// GetByKey returns an entry by its (namespace, key) pair through the
// cache.
func (s *Service) GetByKey(ctx context.Context, namespace, key string) (*types.Entry, error) {
	start := time.Now()
	defer s.recordOp("getByKey", start)

	if s.cache == nil {
		return s.engine.GetByKey(ctx, namespace, key)
	}

	entry, err := s.cache.GetOrSet(pairCacheKey(namespace, key), func() (*types.Entry, error) {
		return s.engine.GetByKey(ctx, namespace, key)
	})
	if err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// Update applies a partial update and keeps the index and cache in
// step.
func (s *Service) Update(ctx context.Context, id string, patch *types.EntryPatch) (*types.Entry, error) {
	start := time.Now()

	entry, err := s.engine.Update(ctx, id, patch)
	if err != nil {
		s.recordError("update", err)
		return nil, err
	}

	if s.index != nil && patch != nil && patch.Embedding != nil {
		if err := s.index.AddPoint(entry.ID, entry.Embedding); err != nil {
			s.logger.Warn(ctx, "index update failed",
				logging.String("id", id),
				logging.Error(err),
			)
		}
	}

	s.invalidateEntry(entry)
	s.recordOp("update", start)
	return entry, nil
}

// Delete removes an entry everywhere: storage, index, cache.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()

	// Look up the pair key first so the cache copy can be dropped.
	var cached *types.Entry
	if s.cache != nil {
		if entry, ok := s.cache.Get(idCacheKey(id)); ok {
			cached = entry
		} else if entry, err := s.engine.Get(ctx, id); err == nil {
			cached = entry
		}
	}

	removed, err := s.engine.Delete(ctx, id)
	if err != nil {
		s.recordError("delete", err)
		return false, err
	}

	if s.index != nil {
		s.index.RemovePoint(id)
	}
	if s.cache != nil {
		s.cache.Delete(idCacheKey(id))
		if cached != nil {
			s.cache.Delete(pairCacheKey(cached.Namespace, cached.Key))
		}
	}

	s.recordOp("delete", start)
	return removed, nil
}

// Query runs the storage query compiler.
func (s *Service) Query(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	start := time.Now()
	defer s.recordOp("query", start)
	return s.engine.Query(ctx, q)
}

// Search runs a vector search through storage.
func (s *Service) Search(ctx context.Context, queryVector []float32, opts *types.SearchOptions) ([]*types.SearchResult, error) {
	start := time.Now()
	defer s.recordOp("search", start)
	return s.engine.Search(ctx, queryVector, opts)
}

// SearchText embeds a query text and runs a vector search. Requires
// an embedder.
func (s *Service) SearchText(ctx context.Context, text string, opts *types.SearchOptions) ([]*types.SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.ErrProviderNotSet.WithMessage("no embedder configured")
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.ErrEmbeddingFailed
	}
	return s.Search(ctx, vectors[0], opts)
}

// GetOrCreate returns the entry bound to (namespace, key), or
// constructs it via the factory and stores it.
func (s *Service) GetOrCreate(ctx context.Context, namespace, key string, factory func() (*types.Entry, error)) (*types.Entry, error) {
	entry, err := s.GetByKey(ctx, namespace, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	entry, err = factory()
	if err != nil {
		return nil, err
	}
	if entry.Namespace == "" {
		entry.Namespace = namespace
	}
	if entry.Key == "" {
		entry.Key = key
	}

	if err := s.StoreEntry(ctx, entry); err != nil {
		// A concurrent creator may have won the pair; surface theirs.
		if errors.Is(err, errors.ErrConflict) {
			return s.GetByKey(ctx, namespace, key)
		}
		return nil, err
	}
	return entry, nil
}

// BulkInsert stores entries atomically and feeds the index.
func (s *Service) BulkInsert(ctx context.Context, entries []*types.Entry) error {
	start := time.Now()

	if err := s.engine.BulkInsert(ctx, entries); err != nil {
		s.recordError("bulkInsert", err)
		return err
	}

	if s.index != nil {
		for _, entry := range entries {
			if entry.Embedding != nil {
				if err := s.index.AddPoint(entry.ID, entry.Embedding); err != nil {
					s.logger.Warn(ctx, "index insert failed",
						logging.String("id", entry.ID),
						logging.Error(err),
					)
				}
			}
		}
	}

	for _, entry := range entries {
		s.invalidateEntry(entry)
	}
	s.recordOp("bulkInsert", start)
	return nil
}

// BulkDelete removes entries atomically.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	start := time.Now()

	count, err := s.engine.BulkDelete(ctx, ids)
	if err != nil {
		s.recordError("bulkDelete", err)
		return 0, err
	}

	for _, id := range ids {
		if s.index != nil {
			s.index.RemovePoint(id)
		}
		if s.cache != nil {
			s.cache.Delete(idCacheKey(id))
		}
	}

	s.recordOp("bulkDelete", start)
	return count, nil
}

// ListNamespaces returns the namespaces in use.
func (s *Service) ListNamespaces(ctx context.Context) ([]string, error) {
	return s.engine.ListNamespaces(ctx)
}

// Count returns the entry count of a namespace ("" counts all).
func (s *Service) Count(ctx context.Context, namespace string) (int64, error) {
	return s.engine.Count(ctx, namespace)
}

// ClearNamespace deletes a namespace and its cache copies.
func (s *Service) ClearNamespace(ctx context.Context, namespace string) (int, error) {
	count, err := s.engine.ClearNamespace(ctx, namespace)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.InvalidatePattern("key:" + namespace + "/")
		// Entries cached by id cannot be mapped back cheaply; drop
		// everything rather than serve stale copies.
		s.cache.Clear()
	}
	return count, nil
}

// Stats aggregates storage, cache, and index statistics.
type Stats struct {
	Storage *types.StorageStats `json:"storage"`
	Cache   *cache.Stats        `json:"cache,omitempty"`
	Index   *hnsw.Stats         `json:"index,omitempty"`
}

// GetStats returns a combined statistics snapshot.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	storageStats, err := s.engine.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Storage: storageStats}
	if s.cache != nil {
		cacheStats := s.cache.GetStats()
		stats.Cache = &cacheStats
	}
	if s.index != nil {
		indexStats := s.index.GetStats()
		stats.Index = &indexStats
	}
	return stats, nil
}

// HealthCheck aggregates the component health checks: unhealthy
// storage is unhealthy overall, anything else degraded at worst.
func (s *Service) HealthCheck(ctx context.Context) health.CheckResult {
	storageResult := s.engine.HealthCheck(ctx)

	result := health.CheckResult{
		Name:   "memory",
		Status: storageResult.Status,
		Details: map[string]interface{}{
			"storage": storageResult,
		},
	}

	if s.cache != nil {
		cacheStats := s.cache.GetStats()
		result.Details["cache"] = cacheStats
	}
	if s.index != nil {
		indexStats := s.index.GetStats()
		result.Details["index"] = indexStats
	}
	return result
}

// RebuildIndex re-inserts every embedding-bearing entry into the
// vector index.
func (s *Service) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	namespaces, err := s.engine.ListNamespaces(ctx)
	if err != nil {
		return err
	}

	var points []hnsw.Point
	for _, namespace := range namespaces {
		results, err := s.engine.Query(ctx, &types.Query{
			Type:      types.QueryHybrid,
			Namespace: namespace,
			Limit:     1 << 30,
		})
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Entry.Embedding != nil {
				points = append(points, hnsw.Point{
					ID:     result.Entry.ID,
					Vector: result.Entry.Embedding,
				})
			}
		}
	}

	return s.index.Rebuild(points)
}

// invalidateEntry drops both cache keys of an entry.
func (s *Service) invalidateEntry(entry *types.Entry) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(idCacheKey(entry.ID))
	s.cache.Delete(pairCacheKey(entry.Namespace, entry.Key))
}

func (s *Service) recordOp(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, "facade", time.Since(start).Seconds())
	}
}

func (s *Service) recordError(op string, err error) {
	if s.metrics == nil {
		return
	}
	code := "unknown"
	var mkErr *errors.Error
	if errors.As(err, &mkErr) {
		code = mkErr.Code
	}
	s.metrics.RecordError(op, "facade", code)
}
