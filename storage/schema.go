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
)

// schema defines the canonical tables. The FTS virtual table is
// created separately because the tokenizer is configurable.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    key TEXT NOT NULL,
    content TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'semantic',
    namespace TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    metadata TEXT NOT NULL DEFAULT '{}',
    embedding BLOB,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    last_accessed_at INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    access_count INTEGER NOT NULL DEFAULT 0,
    UNIQUE(namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_entries_namespace ON entries(namespace);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
CREATE INDEX IF NOT EXISTS idx_entries_accessed ON entries(last_accessed_at);

CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT UNIQUE NOT NULL,
    project TEXT NOT NULL,
    prompt TEXT,
    started_at INTEGER NOT NULL,
    ended_at INTEGER,
    observation_count INTEGER NOT NULL DEFAULT 0,
    summary TEXT,
    status TEXT NOT NULL DEFAULT 'active'
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project, started_at);

CREATE TABLE IF NOT EXISTS user_prompts (
    session_id TEXT NOT NULL,
    prompt_number INTEGER NOT NULL,
    prompt_text TEXT NOT NULL,
    created_at INTEGER NOT NULL,
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
    timestamp INTEGER NOT NULL,
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

CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_observations_project ON observations(project, timestamp);

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
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summaries_project ON session_summaries(project, created_at);
`

// migration is one additive column migration, applied only when the
// probe shows the column is missing. The schema discipline is strictly
// additive: columns are never dropped or retyped.
type migration struct {
	table  string
	column string
	ddl    string
}

// migrations lists the columns added after the initial schema, in
// order. Fresh databases and old ones converge on the same shape: the
// probe makes each ALTER a no-op once the column exists.
var migrations = []migration{
	{"entries", "access_level", `ALTER TABLE entries ADD COLUMN access_level TEXT NOT NULL DEFAULT 'project'`},
	{"entries", "refs", `ALTER TABLE entries ADD COLUMN refs TEXT NOT NULL DEFAULT '[]'`},
	{"observations", "prompt_number", `ALTER TABLE observations ADD COLUMN prompt_number INTEGER NOT NULL DEFAULT 0`},
	{"sessions", "summary", `ALTER TABLE sessions ADD COLUMN summary TEXT`},
}

// ftsCreate builds the FTS5 virtual table DDL for the configured
// tokenizer. The id column is unindexed: it only maps FTS rows back to
// entry rows.
func ftsCreate(tokenizer string) string {
	return fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(id UNINDEXED, content, key, tags, tokenize='%s')`,
		tokenizer,
	)
}

// hasColumn probes PRAGMA table_info for a column.
func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// runMigrations applies the additive migrations, each guarded by a
// column existence probe.
func runMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		exists, err := hasColumn(ctx, db, m.table, m.column)
		if err != nil {
			return fmt.Errorf("probe %s.%s: %w", m.table, m.column, err)
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("migrate %s.%s: %w", m.table, m.column, err)
		}
	}
	return nil
}
