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
	"fmt"
	"strings"

	"github.com/sage-x-project/memkit/pkg/types"
)

// Summary formatting limits.
const (
	maxRequestLen      = 500
	maxPromptInRequest = 200
	maxSummaryFiles    = 20
	maxSummaryCommands = 5
	maxCommandInNotes  = 80
)

// BuildSummary folds a session's prompts and observations into a
// structured SessionSummary.
func BuildSummary(sessionID, project string, prompts []*types.UserPrompt, observations []*types.Observation) *types.SessionSummary {
	summary := &types.SessionSummary{
		SessionID:    sessionID,
		Project:      project,
		Request:      buildRequest(prompts),
		PromptNumber: len(prompts),
		CreatedAt:    types.NowMillis(),
	}

	var (
		reads, writes, commands, searches int
		filesRead                         = make([]string, 0)
		filesModified                     = make([]string, 0)
		seenRead                          = make(map[string]bool)
		seenModified                      = make(map[string]bool)
		notes                             []string
	)

	for _, obs := range observations {
		switch obs.Type {
		case types.ObservationRead:
			reads++
		case types.ObservationWrite:
			writes++
		case types.ObservationExecute:
			commands++
		case types.ObservationSearch:
			searches++
		}

		for _, path := range obs.FilesRead {
			if !seenRead[path] && len(filesRead) < maxSummaryFiles {
				seenRead[path] = true
				filesRead = append(filesRead, path)
			}
		}
		for _, path := range obs.FilesModified {
			if !seenModified[path] && len(filesModified) < maxSummaryFiles {
				seenModified[path] = true
				filesModified = append(filesModified, path)
			}
		}

		if obs.Type == types.ObservationExecute && len(notes) < maxSummaryCommands {
			fields := parseToolInput(obs.ToolInput)
			if fields.Command != "" {
				notes = append(notes, clampText(fields.Command, maxCommandInNotes))
			}
		}
	}

	summary.Completed = formatCompleted(writes, reads, commands, searches)
	summary.FilesRead = filesRead
	summary.FilesModified = filesModified
	summary.Notes = notes
	return summary
}

// buildRequest concatenates all prompts in order as
// "[#1] text → [#2] text", each prompt clamped, the whole clamped to
// the request limit.
func buildRequest(prompts []*types.UserPrompt) string {
	if len(prompts) == 0 {
		return ""
	}

	parts := make([]string, 0, len(prompts))
	for _, p := range prompts {
		parts = append(parts, fmt.Sprintf("[#%d] %s", p.PromptNumber, clampText(p.PromptText, maxPromptInRequest)))
	}
	return clampText(strings.Join(parts, " → "), maxRequestLen)
}

// formatCompleted renders the activity counts, non-zero groups only,
// modified first.
func formatCompleted(writes, reads, commands, searches int) string {
	var parts []string
	if writes > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) modified", writes))
	}
	if reads > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) read", reads))
	}
	if commands > 0 {
		parts = append(parts, fmt.Sprintf("%d command(s) executed", commands))
	}
	if searches > 0 {
		parts = append(parts, fmt.Sprintf("%d search(es)", searches))
	}
	if len(parts) == 0 {
		return "no tracked activity"
	}
	return strings.Join(parts, ", ")
}

// RenderSummaryLine produces the one-line text rendition stored on
// the session record.
func RenderSummaryLine(summary *types.SessionSummary) string {
	line := summary.Completed
	if summary.PromptNumber > 0 {
		line = fmt.Sprintf("%s (%d prompt(s))", line, summary.PromptNumber)
	}
	return line
}
