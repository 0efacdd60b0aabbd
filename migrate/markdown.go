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
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

// MinSectionLength is the minimum body length for a section to become
// its own entry.
const MinSectionLength = 100

// Migrator imports Markdown files into the memory store.
type Migrator struct {
	svc       *memory.Service
	namespace string
	logger    logging.Logger
}

// Result reports one migration run. Per-file failures do not abort
// the batch.
type Result struct {
	FilesScanned int         `json:"filesScanned"`
	FilesSkipped int         `json:"filesSkipped"`
	Imported     int         `json:"imported"`
	Failures     []FileError `json:"failures,omitempty"`
}

// FileError records one failed file.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// NewMigrator creates a migrator writing into the given namespace.
func NewMigrator(svc *memory.Service, namespace string, logger logging.Logger) *Migrator {
	if namespace == "" {
		namespace = "docs"
	}
	if logger == nil {
		logger = logging.NewStructuredLogger(logging.LevelInfo)
	}
	return &Migrator{svc: svc, namespace: namespace, logger: logger}
}

// ImportDir imports every .md file of a directory tree.
func (m *Migrator) ImportDir(ctx context.Context, dir string) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		result.FilesScanned++
		imported, err := m.ImportFile(ctx, path)
		if err != nil {
			// Recoverable: collect and continue.
			result.Failures = append(result.Failures, FileError{Path: path, Err: err.Error()})
			m.logger.Warn(ctx, "markdown import failed",
				logging.String("path", path),
				logging.Error(err),
			)
			return nil
		}
		if imported == 0 {
			result.FilesSkipped++
		}
		result.Imported += imported
		return nil
	})
	if err != nil {
		return result, errors.ErrStore.WithMessage("walk import dir").Wrap(err)
	}
	return result, nil
}

// ImportFile imports one Markdown file: a top-level entry plus one
// entry per substantial section referencing it. Returns the count of
// entries written; 0 when the file is unchanged since the last
// import.
func (m *Migrator) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.ErrParse.WithMessage("read markdown").Wrap(err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return 0, errors.ErrParse.WithMessage("empty markdown file")
	}

	doc := parseMarkdown(content)
	key := fileKey(path)
	hash := contentHash(content)

	// Idempotent re-import: an unchanged file is skipped.
	if existing, err := m.svc.GetByKey(ctx, m.namespace, key); err == nil {
		if existing.Metadata != nil && existing.Metadata["contentHash"] == hash {
			return 0, nil
		}
	}

	title := doc.title
	if title == "" {
		title = key
	}

	parent, err := m.svc.GetOrCreate(ctx, m.namespace, key, func() (*types.Entry, error) {
		return &types.Entry{
			Namespace: m.namespace,
			Key:       key,
			Content:   content,
			Type:      types.MemorySemantic,
			Tags:      []string{"markdown"},
		}, nil
	})
	if err != nil {
		return 0, err
	}

	// A changed file updates the parent in place.
	if _, err := m.svc.Update(ctx, parent.ID, &types.EntryPatch{
		Content: &content,
		Metadata: map[string]interface{}{
			"contentHash": hash,
			"source":      path,
			"title":       title,
		},
	}); err != nil {
		return 0, err
	}

	written := 1
	for _, section := range doc.sections {
		if len(section.body) < MinSectionLength {
			continue
		}

		sectionKey := key + "#" + slugify(section.heading)
		sectionBody := section.body

		entry, err := m.svc.GetOrCreate(ctx, m.namespace, sectionKey, func() (*types.Entry, error) {
			return &types.Entry{
				Namespace:  m.namespace,
				Key:        sectionKey,
				Content:    sectionBody,
				Type:       types.MemorySemantic,
				Tags:       []string{"markdown", "section"},
				References: []string{parent.ID},
			}, nil
		})
		if err != nil {
			return written, err
		}

		if _, err := m.svc.Update(ctx, entry.ID, &types.EntryPatch{
			Content:    &sectionBody,
			References: []string{parent.ID},
			Metadata: map[string]interface{}{
				"heading": section.heading,
				"source":  path,
			},
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// markdownDoc is a parsed file: the title and its sections.
type markdownDoc struct {
	title    string
	sections []markdownSection
}

type markdownSection struct {
	heading string
	body    string
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// parseMarkdown splits a document at its headings. The first h1
// becomes the title; every subsequent heading opens a section.
func parseMarkdown(content string) markdownDoc {
	var (
		doc     markdownDoc
		current *markdownSection
		body    strings.Builder
	)

	flush := func() {
		if current != nil {
			current.body = strings.TrimSpace(body.String())
			doc.sections = append(doc.sections, *current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		match := headingRe.FindStringSubmatch(line)
		if match == nil {
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
			continue
		}

		heading := strings.TrimSpace(match[2])
		if len(match[1]) == 1 && doc.title == "" {
			doc.title = heading
			continue
		}

		flush()
		current = &markdownSection{heading: heading}
	}
	flush()

	return doc
}

// fileKey derives the entry key from the file name.
func fileKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// slugify renders a heading as a key segment.
func slugify(heading string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(heading) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		slug = "section"
	}
	return slug
}

// contentHash is the BLAKE2b-256 hex digest of the file content.
func contentHash(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// String renders a one-line report.
func (r *Result) String() string {
	return fmt.Sprintf("%d file(s) scanned, %d entr(ies) imported, %d skipped, %d failed",
		r.FilesScanned, r.Imported, r.FilesSkipped, len(r.Failures))
}
