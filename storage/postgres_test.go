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
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/sage-x-project/memkit/observability/health"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

func TestNewPostgresEngine_Defaults(t *testing.T) {
	engine := NewPostgresEngine(nil)

	if engine.config.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", engine.config.Host)
	}
	if engine.config.Port != 5432 {
		t.Errorf("Port = %d, want 5432", engine.config.Port)
	}
	if engine.config.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want disable", engine.config.SSLMode)
	}
}

func TestNewPostgresEngine_ConfigCarriedOver(t *testing.T) {
	engine := NewPostgresEngine(&PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "memkit",
		Database: "memkit",
		SSLMode:  "require",
	})

	if engine.config.Host != "db.internal" || engine.config.Port != 5433 {
		t.Errorf("config = %+v", engine.config)
	}
	if engine.config.SSLMode != "require" {
		t.Errorf("SSLMode = %q, want require", engine.config.SSLMode)
	}
}

func TestPostgresEngine_NotInitialized(t *testing.T) {
	engine := NewPostgresEngine(nil)
	ctx := context.Background()

	if _, err := engine.Get(ctx, "mem-1"); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Get before Initialize = %v, want ErrNotInitialized", err)
	}
	if err := engine.Store(ctx, testEntry("ns", "k", "c")); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Store before Initialize = %v, want ErrNotInitialized", err)
	}
	if _, err := engine.Query(ctx, &types.Query{Type: types.QueryExact, Key: "k"}); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Query before Initialize = %v, want ErrNotInitialized", err)
	}
	if _, err := engine.EnsureSession(ctx, "s", "p", ""); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("EnsureSession before Initialize = %v, want ErrNotInitialized", err)
	}
	if err := engine.RebuildFTSIndex(ctx); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("RebuildFTSIndex before Initialize = %v, want ErrNotInitialized", err)
	}
}

func TestPostgresEngine_CloseWithoutInitialize(t *testing.T) {
	engine := NewPostgresEngine(nil)
	if err := engine.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestPostgresEngine_HealthUninitialized(t *testing.T) {
	engine := NewPostgresEngine(nil)

	result := engine.HealthCheck(context.Background())
	if result.Status != health.StatusUnhealthy {
		t.Errorf("HealthCheck = %v, want unhealthy before Initialize", result.Status)
	}
}

func TestPostgresEngine_Tokenizer(t *testing.T) {
	engine := NewPostgresEngine(nil)

	info := engine.Tokenizer()
	if info.ActiveTokenizer != "ilike" {
		t.Errorf("ActiveTokenizer = %q, want ilike", info.ActiveTokenizer)
	}
	if info.IsCJKOptimized {
		t.Error("ILIKE matching must not report CJK optimized")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "40001"}) {
		t.Error("serialization failure is not a unique violation")
	}
	if isUniqueViolation(fmt.Errorf("plain error")) {
		t.Error("plain errors are not unique violations")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

func TestPGFilterClause(t *testing.T) {
	q := &types.Query{
		Namespace:     "patterns",
		MemoryType:    types.MemorySemantic,
		Tags:          []string{"auth", "jwt"},
		CreatedBefore: 2000,
		CreatedAfter:  1000,
		Content:       "JWT",
	}

	clause, args := pgFilterClause(q, 3)

	want := "namespace = $3 AND type = $4 AND tags LIKE $5 AND tags LIKE $6" +
		" AND created_at < $7 AND created_at > $8 AND content ILIKE $9"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 7 {
		t.Fatalf("args = %d, want 7", len(args))
	}
	if args[0] != "patterns" || args[2] != `%"auth"%` {
		t.Errorf("args = %v", args)
	}
	if args[6] != "%JWT%" {
		t.Errorf("content arg = %v, want %%JWT%%", args[6])
	}
}

func TestPGFilterClause_Empty(t *testing.T) {
	clause, args := pgFilterClause(&types.Query{}, 1)
	if clause != "" || args != nil {
		t.Errorf("empty filters = (%q, %v), want empty", clause, args)
	}
}
