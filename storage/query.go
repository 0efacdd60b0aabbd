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
	"strings"

	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

// filterClause renders the shared optional filters into SQL. alias is
// the entries table alias ("" for the bare table).
func filterClause(q *types.Query, alias string) (string, []interface{}) {
	prefix := alias
	if prefix != "" {
		prefix += "."
	}

	var (
		clauses []string
		args    []interface{}
	)

	if q.Namespace != "" {
		clauses = append(clauses, prefix+"namespace = ?")
		args = append(args, q.Namespace)
	}
	if q.MemoryType != "" {
		clauses = append(clauses, prefix+"type = ?")
		args = append(args, string(q.MemoryType))
	}
	for _, tag := range q.Tags {
		// Tags are stored as a JSON array; a quoted-element match
		// requires every listed tag to be present.
		clauses = append(clauses, prefix+"tags LIKE ?")
		args = append(args, `%"`+tag+`"%`)
	}
	if q.CreatedBefore > 0 {
		clauses = append(clauses, prefix+"created_at < ?")
		args = append(args, q.CreatedBefore)
	}
	if q.CreatedAfter > 0 {
		clauses = append(clauses, prefix+"created_at > ?")
		args = append(args, q.CreatedAfter)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " AND "), args
}

// ftsMatchExpr quotes the query text for FTS5 MATCH so user input
// cannot inject query syntax.
func ftsMatchExpr(content string) string {
	return `"` + strings.ReplaceAll(content, `"`, `""`) + `"`
}

// tieBreak is the deterministic ordering for equal scores.
const tieBreak = "updated_at DESC, id ASC"

// Query runs the query compiler. All modes compose with the optional
// filters; ties break on descending updatedAt then ascending id.
func (s *SQLiteEngine) Query(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errors.ErrInvalidInput.WithMessage("query is nil")
	}

	switch q.Type {
	case types.QueryExact:
		return s.queryExact(ctx, q)
	case types.QueryPrefix:
		return s.queryPrefix(ctx, q)
	case types.QueryKeyword:
		return s.queryKeyword(ctx, q)
	case types.QuerySemantic:
		return s.querySemantic(ctx, q)
	case types.QueryHybrid:
		return s.queryHybrid(ctx, q)
	default:
		return nil, errors.ErrInvalidInput.WithDetail("type", string(q.Type))
	}
}

func (s *SQLiteEngine) queryExact(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	where := []string{"key = ?"}
	args := []interface{}{q.Key}
	if clause, filterArgs := filterClause(q, ""); clause != "" {
		where = append(where, clause)
		args = append(args, filterArgs...)
	}
	if q.Content != "" {
		where = append(where, "content LIKE ?")
		args = append(args, "%"+q.Content+"%")
	}
	return s.selectEntries(ctx, strings.Join(where, " AND "), args, q.EffectiveLimit())
}

func (s *SQLiteEngine) queryPrefix(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	where := []string{"key LIKE ?"}
	args := []interface{}{q.KeyPrefix + "%"}
	if clause, filterArgs := filterClause(q, ""); clause != "" {
		where = append(where, clause)
		args = append(args, filterArgs...)
	}
	if q.Content != "" {
		where = append(where, "content LIKE ?")
		args = append(args, "%"+q.Content+"%")
	}
	return s.selectEntries(ctx, strings.Join(where, " AND "), args, q.EffectiveLimit())
}

func (s *SQLiteEngine) selectEntries(ctx context.Context, where string, args []interface{}, limit int) ([]*types.QueryResult, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM entries WHERE %s ORDER BY %s LIMIT ?`,
		entryColumns, where, tieBreak,
	)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var results []*types.QueryResult
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		results = append(results, &types.QueryResult{Entry: entry})
	}
	return results, rows.Err()
}

// queryKeyword runs an FTS MATCH over (content, key, tags), ranked by
// bm25 (lower is better).
func (s *SQLiteEngine) queryKeyword(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	if q.Content == "" {
		return nil, errors.ErrInvalidInput.WithMessage("keyword query requires content")
	}

	where := []string{"entries_fts MATCH ?"}
	args := []interface{}{ftsMatchExpr(q.Content)}
	if clause, filterArgs := filterClause(q, "e"); clause != "" {
		where = append(where, clause)
		args = append(args, filterArgs...)
	}

	query := fmt.Sprintf(`
		SELECT %s, bm25(entries_fts) AS score
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.id
		WHERE %s
		ORDER BY score ASC, e.updated_at DESC, e.id ASC
		LIMIT ?`,
		prefixColumns("e"), strings.Join(where, " AND "),
	)
	args = append(args, q.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var results []*types.QueryResult
	for rows.Next() {
		entry, score, err := scanEntryWithScore(rows)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		results = append(results, &types.QueryResult{Entry: entry, Score: score})
	}
	return results, rows.Err()
}

// prefixColumns qualifies the entry column list with a table alias.
func prefixColumns(alias string) string {
	cols := strings.Split(entryColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanEntryWithScore(rows *sql.Rows) (*types.Entry, float64, error) {
	var (
		e                    types.Entry
		tags, metadata, refs string
		accessLevel          sql.NullString
		embedding            []byte
		score                float64
	)
	err := rows.Scan(
		&e.ID, &e.Key, &e.Content, &e.Type, &e.Namespace, &tags, &metadata, &embedding,
		&e.CreatedAt, &e.UpdatedAt, &e.LastAccessedAt, &e.Version, &e.AccessCount,
		&accessLevel, &refs, &score,
	)
	if err != nil {
		return nil, 0, err
	}

	e.Tags = decodeStringList(tags)
	e.Metadata = decodeMetadata(metadata)
	e.References = decodeStringList(refs)
	e.Embedding = decodeEmbedding(embedding)
	if accessLevel.Valid {
		e.AccessLevel = types.AccessLevel(accessLevel.String)
	}
	return &e, score, nil
}

// querySemantic searches the vector index. Entries without embeddings
// are never indexed and so are ignored, which keeps results
// deterministic.
func (s *SQLiteEngine) querySemantic(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	if len(q.QueryEmbedding) == 0 {
		return nil, errors.ErrInvalidInput.WithMessage("semantic query requires queryEmbedding")
	}

	hits, err := s.Search(ctx, q.QueryEmbedding, &types.SearchOptions{
		K:          q.EffectiveLimit(),
		Namespace:  q.Namespace,
		MemoryType: q.MemoryType,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*types.QueryResult, 0, len(hits))
	for _, hit := range hits {
		if !matchesResidualFilters(hit.Entry, q) {
			continue
		}
		results = append(results, &types.QueryResult{
			Entry: hit.Entry,
			Score: hit.Similarity,
		})
	}
	return results, nil
}

// matchesResidualFilters applies the filters the index cannot:
// tags, created bounds, and the content substring.
func matchesResidualFilters(entry *types.Entry, q *types.Query) bool {
	for _, tag := range q.Tags {
		if !entry.HasTag(tag) {
			return false
		}
	}
	if q.CreatedBefore > 0 && entry.CreatedAt >= q.CreatedBefore {
		return false
	}
	if q.CreatedAfter > 0 && entry.CreatedAt <= q.CreatedAfter {
		return false
	}
	if q.Content != "" && !strings.Contains(entry.Content, q.Content) {
		return false
	}
	return true
}

// queryHybrid unions keyword matches with all rows under the filters,
// deduplicated by id with keyword hits ranked first.
func (s *SQLiteEngine) queryHybrid(ctx context.Context, q *types.Query) ([]*types.QueryResult, error) {
	limit := q.EffectiveLimit()

	var keywordHits []*types.QueryResult
	if q.Content != "" {
		var err error
		keywordHits, err = s.queryKeyword(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	where := "1=1"
	var args []interface{}
	if clause, filterArgs := filterClause(q, ""); clause != "" {
		where = clause
		args = filterArgs
	}
	allRows, err := s.selectEntries(ctx, where, args, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(keywordHits))
	results := make([]*types.QueryResult, 0, limit)
	for _, hit := range keywordHits {
		if len(results) >= limit {
			break
		}
		seen[hit.Entry.ID] = true
		results = append(results, hit)
	}
	for _, row := range allRows {
		if len(results) >= limit {
			break
		}
		if seen[row.Entry.ID] {
			continue
		}
		seen[row.Entry.ID] = true
		results = append(results, row)
	}
	return results, nil
}

// Search delegates to the HNSW index, loads the matching entries, and
// applies the namespace/type post-filter and the similarity threshold.
func (s *SQLiteEngine) Search(ctx context.Context, queryVector []float32, opts *types.SearchOptions) ([]*types.SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.config.Index == nil {
		return []*types.SearchResult{}, nil
	}
	if opts == nil {
		opts = &types.SearchOptions{K: types.DefaultQueryLimit}
	}
	k := opts.K
	if k <= 0 {
		k = types.DefaultQueryLimit
	}

	// Over-fetch so the post-filter can still fill k results.
	fetch := k
	if opts.Namespace != "" || opts.MemoryType != "" {
		fetch = k * 4
	}

	hits, err := s.config.Index.Search(queryVector, fetch)
	if err != nil {
		return nil, err
	}

	metric := s.config.Index.Metric()
	results := make([]*types.SearchResult, 0, k)
	for _, hit := range hits {
		if len(results) >= k {
			break
		}

		entry, err := s.peekEntry(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				// Index and store can briefly disagree after deletes.
				continue
			}
			return nil, err
		}

		if opts.Namespace != "" && entry.Namespace != opts.Namespace {
			continue
		}
		if opts.MemoryType != "" && entry.Type != opts.MemoryType {
			continue
		}

		similarity := hnsw.Similarity(metric, hit.Distance)
		if opts.Threshold > 0 && similarity < opts.Threshold {
			continue
		}

		results = append(results, &types.SearchResult{
			Entry:      entry,
			Distance:   hit.Distance,
			Similarity: similarity,
		})
	}
	return results, nil
}

// peekEntry loads an entry without access bookkeeping; vector search
// hits are candidate reads, not confirmed accesses.
func (s *SQLiteEngine) peekEntry(ctx context.Context, id string) (*types.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	return entry, nil
}
