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

package types

// QueryType selects the retrieval mode for a query.
type QueryType string

const (
	// QueryExact matches entries whose key equals the given key.
	QueryExact QueryType = "exact"
	// QueryPrefix matches entries whose key starts with the given prefix.
	QueryPrefix QueryType = "prefix"
	// QueryKeyword runs a full-text search over content, key, and tags.
	QueryKeyword QueryType = "keyword"
	// QuerySemantic runs a vector search over embeddings.
	QuerySemantic QueryType = "semantic"
	// QueryHybrid unions keyword matches with all filtered rows.
	QueryHybrid QueryType = "hybrid"
)

// DefaultQueryLimit is the result limit applied when none is given.
const DefaultQueryLimit = 10

// Query is the descriptor accepted by the storage engine's Query
// operation. All modes compose with the optional filters.
type Query struct {
	// Type selects the retrieval mode.
	Type QueryType `json:"type"`

	// Key is the exact key to match (QueryExact).
	Key string `json:"key,omitempty"`

	// KeyPrefix is the key prefix to match (QueryPrefix).
	KeyPrefix string `json:"keyPrefix,omitempty"`

	// Content is the text to search for (QueryKeyword, QueryHybrid) or a
	// substring filter for the other modes.
	Content string `json:"content,omitempty"`

	// QueryEmbedding is the query vector (QuerySemantic).
	QueryEmbedding []float32 `json:"queryEmbedding,omitempty"`

	// Namespace restricts results to one namespace.
	Namespace string `json:"namespace,omitempty"`

	// MemoryType restricts results to one memory type.
	MemoryType MemoryType `json:"memoryType,omitempty"`

	// Tags requires every listed tag to be present on a matching entry.
	Tags []string `json:"tags,omitempty"`

	// CreatedBefore excludes entries created at or after this time.
	CreatedBefore int64 `json:"createdBefore,omitempty"`

	// CreatedAfter excludes entries created at or before this time.
	CreatedAfter int64 `json:"createdAfter,omitempty"`

	// Limit caps the result count. Defaults to DefaultQueryLimit.
	Limit int `json:"limit,omitempty"`
}

// EffectiveLimit returns the limit to apply, falling back to the default.
func (q *Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}

// QueryResult is one entry returned by Query, with its retrieval score.
// Lower rank positions are better matches; Score semantics depend on the
// query type (FTS rank for keyword, similarity for semantic).
type QueryResult struct {
	Entry *Entry  `json:"entry"`
	Score float64 `json:"score"`
}

// SearchOptions controls a vector search issued through the storage
// engine.
type SearchOptions struct {
	// K is the number of neighbors to return.
	K int `json:"k"`

	// Threshold drops results whose similarity is below it. Similarity is
	// 1-distance for cosine, -distance for dot, 1/(1+distance) for
	// euclidean and manhattan.
	Threshold float64 `json:"threshold,omitempty"`

	// Namespace restricts results to one namespace.
	Namespace string `json:"namespace,omitempty"`

	// MemoryType restricts results to one memory type.
	MemoryType MemoryType `json:"memoryType,omitempty"`
}

// SearchResult is one vector search hit.
type SearchResult struct {
	Entry      *Entry  `json:"entry"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// StorageStats summarizes the contents of a storage engine.
type StorageStats struct {
	TotalEntries       int64            `json:"totalEntries"`
	EntriesByNamespace map[string]int64 `json:"entriesByNamespace"`
	EntriesByType      map[string]int64 `json:"entriesByType"`
	MemoryUsage        int64            `json:"memoryUsage"`
}
