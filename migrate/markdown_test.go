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

package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/storage"
)

func newTestMigrator(t *testing.T) (*Migrator, *memory.Service) {
	t.Helper()

	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "memory.db"),
	})
	svc := memory.New(engine)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	return NewMigrator(svc, "docs", nil), svc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleDoc = `# Architecture notes

Intro paragraph.

## Storage layer

` + "The storage layer keeps every record in a single SQLite file with a " +
	"parallel FTS5 table. Writes run in transactions and migrations only " +
	"ever add columns, never remove them." + `

## Tiny section

Too short.

## Cache design

` + "The cache is a generic LRU with TTL and a byte budget. Hot entries are " +
	"promoted on reads and evictions always come from the tail of the list." + `
`

func TestImportFile_SectionsReferenceParent(t *testing.T) {
	m, svc := newTestMigrator(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeFile(t, dir, "architecture.md", sampleDoc)

	written, err := m.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	// Top-level + two substantial sections; the tiny one is skipped.
	if written != 3 {
		t.Errorf("written = %d, want 3", written)
	}

	parent, err := svc.GetByKey(ctx, "docs", "architecture")
	if err != nil {
		t.Fatalf("parent missing: %v", err)
	}
	if parent.Metadata["title"] != "Architecture notes" {
		t.Errorf("title = %v", parent.Metadata["title"])
	}

	section, err := svc.GetByKey(ctx, "docs", "architecture#storage-layer")
	if err != nil {
		t.Fatalf("section missing: %v", err)
	}
	if len(section.References) != 1 || section.References[0] != parent.ID {
		t.Errorf("References = %v, want parent id %s", section.References, parent.ID)
	}
	if !strings.Contains(section.Content, "single SQLite file") {
		t.Errorf("section content = %q", section.Content)
	}

	if _, err := svc.GetByKey(ctx, "docs", "architecture#tiny-section"); err == nil {
		t.Error("short section should not become an entry")
	}
}

func TestImportFile_Idempotent(t *testing.T) {
	m, svc := newTestMigrator(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeFile(t, dir, "notes.md", sampleDoc)

	if _, err := m.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	countBefore, _ := svc.Count(ctx, "docs")

	// Unchanged file: no writes.
	written, err := m.ImportFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if written != 0 {
		t.Errorf("re-import written = %d, want 0", written)
	}
	countAfter, _ := svc.Count(ctx, "docs")
	if countBefore != countAfter {
		t.Errorf("count changed on re-import: %d -> %d", countBefore, countAfter)
	}
}

func TestImportFile_ChangedContentUpdates(t *testing.T) {
	m, svc := newTestMigrator(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeFile(t, dir, "notes.md", sampleDoc)
	if _, err := m.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "notes.md", sampleDoc+"\nNew trailing paragraph.")
	written, err := m.ImportFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if written == 0 {
		t.Error("changed file should be re-imported")
	}

	parent, _ := svc.GetByKey(ctx, "docs", "notes")
	if !strings.Contains(parent.Content, "New trailing paragraph") {
		t.Error("parent content should be refreshed")
	}
	if parent.Version < 2 {
		t.Errorf("Version = %d, want bumped", parent.Version)
	}
}

func TestImportDir_CollectsFailures(t *testing.T) {
	m, _ := newTestMigrator(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, dir, "good.md", sampleDoc)
	writeFile(t, dir, "empty.md", "   \n")
	writeFile(t, dir, "ignored.txt", "not markdown")

	result, err := m.ImportDir(ctx, dir)
	if err != nil {
		t.Fatalf("ImportDir() error = %v", err)
	}

	if result.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2 (txt ignored)", result.FilesScanned)
	}
	if result.Imported == 0 {
		t.Error("good file should import")
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %v, want the empty file", result.Failures)
	}
	if !strings.HasSuffix(result.Failures[0].Path, "empty.md") {
		t.Errorf("failure path = %q", result.Failures[0].Path)
	}
}

func TestParseMarkdown(t *testing.T) {
	doc := parseMarkdown("# Title\n\nintro\n\n## One\n\nbody one\n\n## Two\n\nbody two\n")

	if doc.title != "Title" {
		t.Errorf("title = %q", doc.title)
	}
	if len(doc.sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(doc.sections))
	}
	if doc.sections[0].heading != "One" || doc.sections[0].body != "body one" {
		t.Errorf("section[0] = %+v", doc.sections[0])
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"Storage layer", "storage-layer"},
		{"API: the sequel!", "api-the-sequel"},
		{"---", "section"},
	}
	for _, tt := range tests {
		if got := slugify(tt.heading); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

func TestContentHash_Stable(t *testing.T) {
	a := contentHash("same content")
	b := contentHash("same content")
	c := contentHash("different content")

	if a != b {
		t.Error("hash should be deterministic")
	}
	if a == c {
		t.Error("different content should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestImportEntryReferencesForSeedScenario(t *testing.T) {
	// Spec seed scenario 6: each section entry's references contains
	// the parent entry's id.
	m, svc := newTestMigrator(t)
	ctx := context.Background()
	dir := t.TempDir()

	long := strings.Repeat("This section carries enough content to qualify. ", 4)
	writeFile(t, dir, "a.md", "# A\n\n## S1\n\n"+long+"\n\n## S2\n\n"+long)
	writeFile(t, dir, "b.md", "# B\n\n## S1\n\n"+long)

	result, err := m.ImportDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("failures = %v", result.Failures)
	}

	for _, file := range []string{"a", "b"} {
		parent, err := svc.GetByKey(ctx, "docs", file)
		if err != nil {
			t.Fatalf("parent %s missing", file)
		}
		results, err := svc.Query(ctx, &types.Query{
			Type:      types.QueryPrefix,
			KeyPrefix: file + "#",
			Namespace: "docs",
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 {
			t.Fatalf("no sections for %s", file)
		}
		for _, r := range results {
			found := false
			for _, ref := range r.Entry.References {
				if ref == parent.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("section %s lacks parent reference", r.Entry.Key)
			}
		}
	}
}
