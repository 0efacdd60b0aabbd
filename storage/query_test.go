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
	"testing"

	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

func seedQueryEntries(t *testing.T, engine *SQLiteEngine) {
	t.Helper()
	ctx := context.Background()

	entries := []*types.Entry{
		{
			Namespace: "patterns", Key: "auth/jwt", Content: "JWT with refresh tokens",
			Type: types.MemorySemantic, Tags: []string{"auth", "jwt"},
		},
		{
			Namespace: "patterns", Key: "auth/oauth", Content: "OAuth2 authorization code flow",
			Type: types.MemorySemantic, Tags: []string{"auth", "oauth"},
		},
		{
			Namespace: "errors", Key: "timeout", Content: "connection timeout after retries",
			Type: types.MemoryEpisodic, Tags: []string{"network"},
		},
	}
	for _, e := range entries {
		if err := engine.Store(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
}

func TestQuery_Exact(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type: types.QueryExact,
		Key:  "auth/jwt",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 1 || results[0].Entry.Key != "auth/jwt" {
		t.Errorf("exact results = %v", results)
	}
}

func TestQuery_Prefix(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:      types.QueryPrefix,
		KeyPrefix: "auth/",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("prefix results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Entry.Namespace != "patterns" {
			t.Errorf("unexpected entry %q", r.Entry.Key)
		}
	}
}

func TestQuery_Keyword(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:    types.QueryKeyword,
		Content: "timeout",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 1 || results[0].Entry.Key != "timeout" {
		t.Errorf("keyword results = %v", results)
	}
}

func TestQuery_KeywordRequiresContent(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Query(context.Background(), &types.Query{Type: types.QueryKeyword})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("keyword without content = %v, want ErrInvalidInput", err)
	}
}

func TestQuery_KeywordMatchesTags(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:    types.QueryKeyword,
		Content: "oauth",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Entry.Key != "auth/oauth" {
		t.Errorf("tag keyword results = %v", results)
	}
}

func TestQuery_NamespaceFilter(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:      types.QueryHybrid,
		Namespace: "patterns",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("namespace filter results = %d, want 2", len(results))
	}
}

func TestQuery_TagsRequireAll(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type: types.QueryHybrid,
		Tags: []string{"auth", "jwt"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Entry.Key != "auth/jwt" {
		t.Errorf("tags-all results = %v", results)
	}
}

func TestQuery_MemoryTypeFilter(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:       types.QueryHybrid,
		MemoryType: types.MemoryEpisodic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Entry.Key != "timeout" {
		t.Errorf("type filter results = %v", results)
	}
}

func TestQuery_CreatedBounds(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	early := testEntry("time", "early", "c")
	early.CreatedAt = 1000
	late := testEntry("time", "late", "c")
	late.CreatedAt = 2000
	engine.Store(ctx, early)
	engine.Store(ctx, late)

	results, err := engine.Query(ctx, &types.Query{
		Type:          types.QueryHybrid,
		Namespace:     "time",
		CreatedBefore: 1500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Entry.Key != "early" {
		t.Errorf("createdBefore results = %v", results)
	}

	results, err = engine.Query(ctx, &types.Query{
		Type:         types.QueryHybrid,
		Namespace:    "time",
		CreatedAfter: 1500,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Entry.Key != "late" {
		t.Errorf("createdAfter results = %v", results)
	}
}

func TestQuery_Limit(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		engine.Store(ctx, testEntry("many", string(rune('a'+i)), "content"))
	}

	// Default limit is 10.
	results, err := engine.Query(ctx, &types.Query{Type: types.QueryHybrid, Namespace: "many"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 10 {
		t.Errorf("default limit results = %d, want 10", len(results))
	}

	results, err = engine.Query(ctx, &types.Query{
		Type: types.QueryHybrid, Namespace: "many", Limit: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("explicit limit results = %d, want 3", len(results))
	}
}

func TestQuery_HybridDedupes(t *testing.T) {
	engine := newTestEngine(t, nil)
	seedQueryEntries(t, engine)

	results, err := engine.Query(context.Background(), &types.Query{
		Type:      types.QueryHybrid,
		Content:   "JWT",
		Namespace: "patterns",
	})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Entry.ID] {
			t.Errorf("duplicate id %q in hybrid results", r.Entry.ID)
		}
		seen[r.Entry.ID] = true
	}
	// Keyword match ranks first.
	if results[0].Entry.Key != "auth/jwt" {
		t.Errorf("first hybrid result = %q, want keyword hit auth/jwt", results[0].Entry.Key)
	}
	// Union still carries the other filtered row.
	if len(results) != 2 {
		t.Errorf("hybrid results = %d, want 2", len(results))
	}
}

func TestQuery_UnknownType(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Query(context.Background(), &types.Query{Type: "fuzzy"})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("unknown type = %v, want ErrInvalidInput", err)
	}
}

func TestQuery_SemanticRequiresEmbedding(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Query(context.Background(), &types.Query{Type: types.QuerySemantic})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("semantic without embedding = %v, want ErrInvalidInput", err)
	}
}

func TestQuery_FTSParityAfterWrites(t *testing.T) {
	// FTS/row parity: updates and deletes keep the FTS table in sync.
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	entry := testEntry("ns", "doc", "original searchable phrase")
	engine.Store(ctx, entry)

	newContent := "replacement wording entirely"
	if _, err := engine.Update(ctx, entry.ID, &types.EntryPatch{Content: &newContent}); err != nil {
		t.Fatal(err)
	}

	results, _ := engine.Query(ctx, &types.Query{Type: types.QueryKeyword, Content: "original"})
	if len(results) != 0 {
		t.Error("old content should no longer match after update")
	}
	results, _ = engine.Query(ctx, &types.Query{Type: types.QueryKeyword, Content: "replacement"})
	if len(results) != 1 {
		t.Error("new content should match after update")
	}

	engine.Delete(ctx, entry.ID)
	results, _ = engine.Query(ctx, &types.Query{Type: types.QueryKeyword, Content: "replacement"})
	if len(results) != 0 {
		t.Error("deleted entry should not match")
	}
}
