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

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/pkg/types"
)

// Memory categories accepted by the save/search/list operations.
var memoryCategories = []string{"decision", "pattern", "error", "context", "observation"}

// Importance levels accepted by memory_save.
var importanceLevels = []string{"low", "medium", "high", "critical"}

// Time ranges accepted by memory_recall.
var timeRanges = []string{"today", "week", "month", "all"}

// MaxDetailsIDs caps the ids one memory_details request may ask for.
const MaxDetailsIDs = 5

// categoryType maps a category to the memory type of its entries.
func categoryType(category string) types.MemoryType {
	switch category {
	case "decision", "pattern", "context":
		return types.MemorySemantic
	case "error", "observation":
		return types.MemoryEpisodic
	default:
		return types.MemorySemantic
	}
}

// MemoryTools builds the seven memory operations over the facade and
// registers them into a fresh registry.
func MemoryTools(svc *memory.Service) *Registry {
	registry := NewRegistry()
	for _, tool := range []Tool{
		SaveTool(svc),
		SearchTool(svc),
		TimelineTool(svc),
		DetailsTool(svc),
		RecallTool(svc),
		ListTool(svc),
		StatusTool(svc),
	} {
		// Registration of a fixed tool set cannot collide.
		_ = registry.Register(tool)
	}
	return registry
}

// SaveTool persists a memory entry.
func SaveTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_save",
		"Save a piece of knowledge into project memory",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"content": {
					Type:        "string",
					Description: "The knowledge to remember",
				},
				"category": {
					Type:        "string",
					Description: "The kind of knowledge",
					Enum:        memoryCategories,
					Default:     "context",
				},
				"tags": {
					Type:        "array",
					Description: "Labels attached to the entry",
				},
				"importance": {
					Type:        "string",
					Description: "How important this knowledge is",
					Enum:        importanceLevels,
					Default:     "medium",
				},
			},
			Required: []string{"content"},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			content, ok := params["content"].(string)
			if !ok || content == "" {
				return ErrorResultWithMessage("content must be a non-empty string"), nil
			}

			category := stringParam(params, "category", "context")
			if !contains(memoryCategories, category) {
				return ErrorResultWithMessage(fmt.Sprintf("unknown category: %s", category)), nil
			}
			importance := stringParam(params, "importance", "medium")
			if !contains(importanceLevels, importance) {
				return ErrorResultWithMessage(fmt.Sprintf("unknown importance: %s", importance)), nil
			}

			entry := &types.Entry{
				Namespace: category,
				Key:       fmt.Sprintf("%s-%d", category, types.NowMillis()),
				Content:   content,
				Type:      categoryType(category),
				Tags:      stringSliceParam(params, "tags"),
				Metadata:  map[string]interface{}{"importance": importance},
			}
			if err := svc.StoreEntry(ctx, entry); err != nil {
				return ErrorResult(err), nil
			}

			return SuccessResult(map[string]interface{}{
				"id":       entry.ID,
				"key":      entry.Key,
				"category": category,
			}), nil
		},
	)
}

// SearchTool runs a keyword search.
func SearchTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_search",
		"Search project memory by keyword",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"query": {
					Type:        "string",
					Description: "Text to search for",
				},
				"limit": {
					Type:        "number",
					Description: "Maximum results",
					Default:     10,
				},
				"category": {
					Type:        "string",
					Description: "Restrict to one category",
					Enum:        memoryCategories,
				},
			},
			Required: []string{"query"},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			query, ok := params["query"].(string)
			if !ok || query == "" {
				return ErrorResultWithMessage("query must be a non-empty string"), nil
			}

			results, err := svc.Query(ctx, &types.Query{
				Type:      types.QueryKeyword,
				Content:   query,
				Namespace: stringParam(params, "category", ""),
				Limit:     intParam(params, "limit", 10),
			})
			if err != nil {
				return ErrorResult(err), nil
			}
			return SuccessResult(renderResults(results)), nil
		},
	)
}

// TimelineTool returns entries around an anchor entry in time.
func TimelineTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_timeline",
		"List entries recorded around an anchor entry",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"anchor_id": {
					Type:        "string",
					Description: "Entry id at the center of the window",
				},
				"before": {
					Type:        "number",
					Description: "Minutes before the anchor",
					Default:     30,
				},
				"after": {
					Type:        "number",
					Description: "Minutes after the anchor",
					Default:     30,
				},
			},
			Required: []string{"anchor_id"},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			anchorID, ok := params["anchor_id"].(string)
			if !ok || anchorID == "" {
				return ErrorResultWithMessage("anchor_id must be a non-empty string"), nil
			}

			anchor, err := svc.Get(ctx, anchorID)
			if err != nil {
				return ErrorResult(err), nil
			}

			before := int64(intParam(params, "before", 30))
			after := int64(intParam(params, "after", 30))

			results, err := svc.Query(ctx, &types.Query{
				Type:          types.QueryHybrid,
				CreatedAfter:  anchor.CreatedAt - before*60_000,
				CreatedBefore: anchor.CreatedAt + after*60_000,
				Limit:         50,
			})
			if err != nil {
				return ErrorResult(err), nil
			}
			return SuccessResult(map[string]interface{}{
				"anchor":  renderEntry(anchor),
				"entries": renderResults(results),
			}), nil
		},
	)
}

// DetailsTool returns full records for up to MaxDetailsIDs ids.
func DetailsTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_details",
		"Fetch full memory records by id",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"ids": {
					Type:        "array",
					Description: fmt.Sprintf("Entry ids, at most %d", MaxDetailsIDs),
				},
			},
			Required: []string{"ids"},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			ids := stringSliceParam(params, "ids")
			if len(ids) == 0 {
				return ErrorResultWithMessage("ids must be a non-empty array"), nil
			}
			if len(ids) > MaxDetailsIDs {
				return ErrorResultWithMessage(fmt.Sprintf("at most %d ids per request", MaxDetailsIDs)), nil
			}

			entries := make([]map[string]interface{}, 0, len(ids))
			for _, id := range ids {
				entry, err := svc.Get(ctx, id)
				if err != nil {
					// Missing ids are skipped, not fatal.
					continue
				}
				entries = append(entries, renderEntry(entry))
			}
			return SuccessResult(entries), nil
		},
	)
}

// RecallTool searches a topic within a time range.
func RecallTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_recall",
		"Recall what is known about a topic within a time range",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"topic": {
					Type:        "string",
					Description: "Topic to recall",
				},
				"time_range": {
					Type:        "string",
					Description: "How far back to look",
					Enum:        timeRanges,
					Default:     "all",
				},
			},
			Required: []string{"topic"},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			topic, ok := params["topic"].(string)
			if !ok || topic == "" {
				return ErrorResultWithMessage("topic must be a non-empty string"), nil
			}
			timeRange := stringParam(params, "time_range", "all")
			if !contains(timeRanges, timeRange) {
				return ErrorResultWithMessage(fmt.Sprintf("unknown time_range: %s", timeRange)), nil
			}

			results, err := svc.Query(ctx, &types.Query{
				Type:         types.QueryKeyword,
				Content:      topic,
				CreatedAfter: rangeCutoff(timeRange),
				Limit:        20,
			})
			if err != nil {
				return ErrorResult(err), nil
			}
			return SuccessResult(renderResults(results)), nil
		},
	)
}

// ListTool lists entries of a category.
func ListTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_list",
		"List recent memory entries of a category",
		&ParameterSchema{
			Type: "object",
			Properties: map[string]*PropertySchema{
				"category": {
					Type:        "string",
					Description: "Category to list",
					Enum:        memoryCategories,
				},
				"limit": {
					Type:        "number",
					Description: "Maximum results",
					Default:     10,
				},
			},
		},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			results, err := svc.Query(ctx, &types.Query{
				Type:      types.QueryHybrid,
				Namespace: stringParam(params, "category", ""),
				Limit:     intParam(params, "limit", 10),
			})
			if err != nil {
				return ErrorResult(err), nil
			}
			return SuccessResult(renderResults(results)), nil
		},
	)
}

// StatusTool reports stats and health.
func StatusTool(svc *memory.Service) Tool {
	return NewFunctionTool(
		"memory_status",
		"Report memory store statistics and health",
		&ParameterSchema{Type: "object"},
		func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			stats, err := svc.GetStats(ctx)
			if err != nil {
				return ErrorResult(err), nil
			}
			result := svc.HealthCheck(ctx)

			return SuccessResult(map[string]interface{}{
				"stats":  stats,
				"health": string(result.Status),
			}), nil
		},
	)
}

// rangeCutoff converts a time range to an epoch-millis lower bound.
func rangeCutoff(timeRange string) int64 {
	now := time.Now()
	switch timeRange {
	case "today":
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight.UnixMilli()
	case "week":
		return now.AddDate(0, 0, -7).UnixMilli()
	case "month":
		return now.AddDate(0, -1, 0).UnixMilli()
	default:
		return 0
	}
}

func renderEntry(entry *types.Entry) map[string]interface{} {
	out := map[string]interface{}{
		"id":        entry.ID,
		"key":       entry.Key,
		"content":   entry.Content,
		"namespace": entry.Namespace,
		"createdAt": entry.CreatedAt,
	}
	if len(entry.Tags) > 0 {
		out["tags"] = entry.Tags
	}
	if entry.Metadata != nil {
		out["metadata"] = entry.Metadata
	}
	return out
}

func renderResults(results []*types.QueryResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		rendered := renderEntry(r.Entry)
		if r.Score != 0 {
			rendered["score"] = r.Score
		}
		out = append(out, rendered)
	}
	return out
}

func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		if direct, ok := params[key].([]string); ok {
			return direct
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
