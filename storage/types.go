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

	"github.com/sage-x-project/memkit/observability/health"
	"github.com/sage-x-project/memkit/pkg/types"
)

// Engine is the persistence interface for memkit records.
//
// Implementations own all persisted state. Single-record lookups
// report absence with errors.ErrNotFound; writes that violate the
// (namespace, key) uniqueness invariant fail with errors.ErrConflict;
// operations before Initialize fail with errors.ErrNotInitialized.
type Engine interface {
	// Initialize opens the store, creates tables, and runs additive
	// migrations. Idempotent: a second call returns success.
	Initialize(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// Store upserts an entry by id. A (namespace, key) conflict on a
	// different id fails with ErrConflict. The FTS row is updated in
	// the same transaction.
	Store(ctx context.Context, entry *types.Entry) error

	// Get returns the entry by id, incrementing accessCount and
	// lastAccessedAt.
	Get(ctx context.Context, id string) (*types.Entry, error)

	// GetByKey returns the entry by its unique (namespace, key) pair,
	// with the same access bookkeeping as Get.
	GetByKey(ctx context.Context, namespace, key string) (*types.Entry, error)

	// Update applies a partial update: version increments and
	// updatedAt is refreshed. Unknown ids fail with ErrNotFound.
	Update(ctx context.Context, id string, patch *types.EntryPatch) (*types.Entry, error)

	// Delete removes an entry and its FTS row. Returns whether a row
	// was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// BulkInsert stores all entries in a single transaction, all or
	// nothing. Empty input is a no-op.
	BulkInsert(ctx context.Context, entries []*types.Entry) error

	// BulkDelete removes the given ids in a single transaction and
	// returns the count actually removed.
	BulkDelete(ctx context.Context, ids []string) (int, error)

	// Query runs the query compiler over the persisted entries.
	Query(ctx context.Context, q *types.Query) ([]*types.QueryResult, error)

	// Search delegates to the vector index and post-filters the hits
	// against the persisted entries.
	Search(ctx context.Context, queryVector []float32, opts *types.SearchOptions) ([]*types.SearchResult, error)

	// ListNamespaces returns the namespaces currently in use.
	ListNamespaces(ctx context.Context) ([]string, error)

	// Count returns the entry count, optionally restricted to one
	// namespace ("" counts all).
	Count(ctx context.Context, namespace string) (int64, error)

	// ClearNamespace deletes all entries of a namespace and returns
	// the count deleted.
	ClearNamespace(ctx context.Context, namespace string) (int, error)

	// GetStats summarizes the stored entries.
	GetStats(ctx context.Context) (*types.StorageStats, error)

	// HealthCheck probes the underlying store.
	HealthCheck(ctx context.Context) health.CheckResult

	// RebuildFTSIndex drops and repopulates the FTS table from the
	// canonical entry rows.
	RebuildFTSIndex(ctx context.Context) error

	SessionStore
}

// SessionStore is the session-record surface used by the hook
// pipeline and the viewer.
type SessionStore interface {
	// EnsureSession creates the session when absent; idempotent by
	// sessionID.
	EnsureSession(ctx context.Context, sessionID, project, prompt string) (*types.Session, error)

	// GetSession returns a session by its opaque id.
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)

	// EndSession marks a session ended with the given summary text and
	// status.
	EndSession(ctx context.Context, sessionID, summary string, status types.SessionStatus) error

	// GetRecentSessions returns the most recently started sessions of
	// a project.
	GetRecentSessions(ctx context.Context, project string, limit int) ([]*types.Session, error)

	// AddPrompt appends a prompt with the next dense promptNumber.
	AddPrompt(ctx context.Context, sessionID, promptText string) (*types.UserPrompt, error)

	// GetSessionPrompts returns a session's prompts in ascending
	// promptNumber order.
	GetSessionPrompts(ctx context.Context, sessionID string) ([]*types.UserPrompt, error)

	// SaveObservation persists an observation and increments the
	// session's observation count.
	SaveObservation(ctx context.Context, obs *types.Observation) error

	// GetObservation returns an observation by id.
	GetObservation(ctx context.Context, id string) (*types.Observation, error)

	// UpdateObservation replaces the enrichable fields of an
	// observation (subtitle, narrative, facts, concepts).
	UpdateObservation(ctx context.Context, obs *types.Observation) error

	// GetSessionObservations returns a session's observations in
	// timestamp order, tie-broken by id.
	GetSessionObservations(ctx context.Context, sessionID string) ([]*types.Observation, error)

	// GetRecentObservations returns the most recent observations of a
	// project.
	GetRecentObservations(ctx context.Context, project string, limit int) ([]*types.Observation, error)

	// SaveSummary persists a session summary.
	SaveSummary(ctx context.Context, summary *types.SessionSummary) error

	// GetRecentSummaries returns the most recent summaries of a
	// project.
	GetRecentSummaries(ctx context.Context, project string, limit int) ([]*types.SessionSummary, error)
}

// TokenizerInfo reports the FTS tokenizer configuration of an engine.
type TokenizerInfo struct {
	// ActiveTokenizer is the tokenizer in use.
	ActiveTokenizer string `json:"activeTokenizer"`

	// IsCJKOptimized is true for the trigram tokenizer.
	IsCJKOptimized bool `json:"isCjkOptimized"`
}
