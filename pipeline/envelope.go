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
	"os"
	"path/filepath"
	"strings"

	"github.com/sage-x-project/memkit/pkg/types"
)

// HookEnvelope is the JSON envelope consumed from the host, one per
// line on stdin.
type HookEnvelope struct {
	SessionID      string          `json:"session_id,omitempty"`
	CWD            string          `json:"cwd,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	ToolResult     json.RawMessage `json:"tool_result,omitempty"`
	ToolResponse   json.RawMessage `json:"tool_response,omitempty"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	StopReason     string          `json:"stop_reason,omitempty"`
}

// HookResponse is the envelope emitted to stdout. Hook errors never
// block the host: Continue is always true.
type HookResponse struct {
	Continue           bool                `json:"continue"`
	SuppressOutput     bool                `json:"suppressOutput"`
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// HookSpecificOutput carries event-specific payloads back to the
// host.
type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// NewHookResponse returns the standard success envelope.
func NewHookResponse(suppress bool) *HookResponse {
	return &HookResponse{Continue: true, SuppressOutput: suppress}
}

// Event is the normalized record every handler consumes.
type Event struct {
	SessionID      string
	CWD            string
	Project        string
	Prompt         string
	ToolName       string
	ToolInput      string
	ToolResponse   string
	TranscriptPath string
	StopReason     string
	Timestamp      int64
}

// ParseEnvelope parses a serialized hook envelope into a normalized
// event. It never fails: malformed JSON degrades to a synthesized
// record carrying only sessionId, cwd, project, and timestamp.
func ParseEnvelope(data []byte) *Event {
	var envelope HookEnvelope
	// Malformed input falls through with the zero envelope.
	_ = json.Unmarshal(data, &envelope)

	event := &Event{
		SessionID:      envelope.SessionID,
		CWD:            envelope.CWD,
		Prompt:         envelope.Prompt,
		ToolName:       envelope.ToolName,
		TranscriptPath: envelope.TranscriptPath,
		StopReason:     envelope.StopReason,
		Timestamp:      types.NowMillis(),
	}

	if event.SessionID == "" {
		event.SessionID = types.GenerateSessionID()
	}
	if event.CWD == "" {
		if wd, err := os.Getwd(); err == nil {
			event.CWD = wd
		}
	}
	event.Project = ProjectFromPath(event.CWD)

	event.ToolInput = rawToString(envelope.ToolInput)
	// The host emits tool_result; older envelopes carried
	// tool_response.
	event.ToolResponse = rawToString(envelope.ToolResult)
	if event.ToolResponse == "" {
		event.ToolResponse = rawToString(envelope.ToolResponse)
	}

	return event
}

// rawToString renders a raw JSON value as its serialized form,
// unwrapping plain JSON strings.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ProjectFromPath derives the project name from a working directory:
// the last path segment, or "unknown" when the path is empty or ends
// with a separator.
func ProjectFromPath(path string) string {
	if path == "" || strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return "unknown"
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "unknown"
	}
	return base
}
