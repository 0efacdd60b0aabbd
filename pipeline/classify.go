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

package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/memkit/pkg/types"
)

// internalTools are host bookkeeping tools the pipeline never records.
var internalTools = map[string]bool{
	"TodoWrite":           true,
	"TodoRead":            true,
	"AskFollowupQuestion": true,
	"AttemptCompletion":   true,
}

// IsInternalTool reports whether a tool invocation is skipped.
func IsInternalTool(toolName string) bool {
	return internalTools[toolName]
}

// toolClasses maps tool names to observation types. Unlisted tools
// classify as other.
var toolClasses = map[string]types.ObservationType{
	"Read":         types.ObservationRead,
	"Glob":         types.ObservationRead,
	"Grep":         types.ObservationRead,
	"LS":           types.ObservationRead,
	"Write":        types.ObservationWrite,
	"Edit":         types.ObservationWrite,
	"NotebookEdit": types.ObservationWrite,
	"Bash":         types.ObservationExecute,
	"Task":         types.ObservationExecute,
	"Skill":        types.ObservationExecute,
	"WebSearch":    types.ObservationSearch,
	"WebFetch":     types.ObservationSearch,
}

// ClassifyTool derives the observation type from a tool name.
func ClassifyTool(toolName string) types.ObservationType {
	if class, ok := toolClasses[toolName]; ok {
		return class
	}
	return types.ObservationOther
}

// maxCommandTitleLen bounds the command text embedded in a Bash title.
const maxCommandTitleLen = 50

// toolInputFields is the subset of tool input fields the templates
// draw from.
type toolInputFields struct {
	FilePath    string `json:"file_path"`
	Path        string `json:"path"`
	Command     string `json:"command"`
	Pattern     string `json:"pattern"`
	Query       string `json:"query"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// parseToolInput extracts the template fields, swallowing parse
// errors: extraction is best-effort.
func parseToolInput(toolInput string) toolInputFields {
	var fields toolInputFields
	if toolInput == "" {
		return fields
	}
	_ = json.Unmarshal([]byte(toolInput), &fields)
	return fields
}

// SynthesizeTitle renders the deterministic fallback title for a tool
// invocation.
func SynthesizeTitle(toolName, toolInput string) string {
	fields := parseToolInput(toolInput)

	file := fields.FilePath
	if file == "" {
		file = fields.Path
	}

	switch toolName {
	case "Read", "LS":
		if file == "" {
			file = "file"
		}
		return "Read " + file
	case "Write":
		if file == "" {
			file = "file"
		}
		return "Write " + file
	case "Edit", "NotebookEdit":
		if file == "" {
			file = "file"
		}
		return "Edit " + file
	case "Bash":
		return "Run: " + truncateText(fields.Command, maxCommandTitleLen)
	case "Glob":
		return "Find " + fields.Pattern
	case "Grep":
		return fmt.Sprintf("Search %q", fields.Pattern)
	case "Task":
		desc := fields.Description
		if desc == "" {
			desc = "agent"
		}
		return "Task: " + desc
	case "WebSearch":
		return "Search: " + fields.Query
	case "WebFetch":
		return "Fetch: " + fields.URL
	default:
		return toolName
	}
}

// truncateText cuts text at max runes, marking the cut with an
// ellipsis.
func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// ExtractFilePaths pulls file paths from a tool input for read- and
// write-class tools. Extraction is best-effort and swallows parse
// errors.
func ExtractFilePaths(obsType types.ObservationType, toolInput string) (filesRead, filesModified []string) {
	if obsType != types.ObservationRead && obsType != types.ObservationWrite {
		return nil, nil
	}

	fields := parseToolInput(toolInput)
	path := fields.FilePath
	if path == "" {
		path = fields.Path
	}
	if path == "" {
		return nil, nil
	}

	if obsType == types.ObservationRead {
		return []string{path}, nil
	}
	return nil, []string{path}
}

// BuildObservation assembles the deterministic observation record for
// a tool-use event.
func BuildObservation(event *Event, responseLimit int) *types.Observation {
	obsType := ClassifyTool(event.ToolName)
	filesRead, filesModified := ExtractFilePaths(obsType, event.ToolInput)

	return &types.Observation{
		ID:            types.GenerateObservationID(),
		SessionID:     event.SessionID,
		Project:       event.Project,
		ToolName:      event.ToolName,
		ToolInput:     event.ToolInput,
		ToolResponse:  TruncateResponse(event.ToolResponse, responseLimit),
		CWD:           event.CWD,
		Timestamp:     event.Timestamp,
		Type:          obsType,
		Title:         SynthesizeTitle(event.ToolName, event.ToolInput),
		FilesRead:     filesRead,
		FilesModified: filesModified,
	}
}
