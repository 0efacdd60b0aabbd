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

// Package storage provides the persistence layer for memkit: entries,
// sessions, user prompts, observations, and session summaries.
//
// The canonical engine is SQLite-backed: a single database file under
// the project's .claude/memory directory, with a parallel FTS5 virtual
// table over entry (content, key, tags) kept synchronous with writes,
// additive schema migration probed via PRAGMA table_info, and a query
// compiler composing exact, prefix, keyword, semantic, and hybrid
// retrieval with shared filters.
//
// A PostgreSQL engine implements the same Engine interface for
// shared-team deployments. Its keyword search runs on ILIKE rather
// than a dedicated full-text index; ranking fidelity differs from the
// SQLite engine and is documented on the methods.
//
// All write paths run in transactions: a failure inside a bulk
// operation rolls back the whole batch. Operations issued before
// Initialize fail with ErrNotInitialized. Single-record lookups report
// absence as ErrNotFound.
//
// Example:
//
//	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{
//	    Path: "/work/project/.claude/memory/memory.db",
//	})
//	if err := engine.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	err := engine.Store(ctx, &types.Entry{
//	    ID:        types.GenerateEntryID(),
//	    Namespace: "patterns",
//	    Key:       "auth",
//	    Content:   "JWT + refresh",
//	})
package storage
