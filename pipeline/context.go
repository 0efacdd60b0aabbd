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
	"context"
	"fmt"
	"strings"

	"github.com/sage-x-project/memkit/pkg/types"
)

// Context payload limits.
const (
	contextSummaries    = 3
	contextSessions     = 5
	contextObservations = 10
)

// renderContext assembles the Markdown context payload for a session
// start: recent summaries, sessions, and observations of the project.
// Returns "" when the project has no history.
func (p *Pipeline) renderContext(ctx context.Context, project string) (string, error) {
	summaries, err := p.store.GetRecentSummaries(ctx, project, contextSummaries)
	if err != nil {
		return "", err
	}
	sessions, err := p.store.GetRecentSessions(ctx, project, contextSessions)
	if err != nil {
		return "", err
	}
	observations, err := p.store.GetRecentObservations(ctx, project, contextObservations)
	if err != nil {
		return "", err
	}

	// Only the freshly ensured session exists on a first run; that is
	// no history.
	hasHistory := len(summaries) > 0 || len(observations) > 0 ||
		len(sessions) > 1 || (len(sessions) == 1 && sessions[0].ObservationCount > 0)
	if !hasHistory {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Recent activity in %s\n", project)

	if len(summaries) > 0 {
		sb.WriteString("\n## Previous sessions\n")
		for _, summary := range summaries {
			fmt.Fprintf(&sb, "- %s", summary.Completed)
			if summary.Request != "" {
				fmt.Fprintf(&sb, ": %s", clampText(summary.Request, 120))
			}
			sb.WriteString("\n")
			if len(summary.FilesModified) > 0 {
				fmt.Fprintf(&sb, "  - modified: %s\n", strings.Join(summary.FilesModified, ", "))
			}
			if summary.NextSteps != "" {
				fmt.Fprintf(&sb, "  - next: %s\n", summary.NextSteps)
			}
		}
	}

	recent := recentCompleted(sessions)
	if len(recent) > 0 {
		sb.WriteString("\n## Sessions\n")
		for _, session := range recent {
			line := session.Summary
			if line == "" {
				line = string(session.Status)
			}
			fmt.Fprintf(&sb, "- %s: %s\n", session.SessionID, line)
		}
	}

	if len(observations) > 0 {
		sb.WriteString("\n## Recent observations\n")
		for _, obs := range observations {
			fmt.Fprintf(&sb, "- [%s] %s\n", obs.Type, obs.Title)
		}
	}

	return sb.String(), nil
}

// recentCompleted filters sessions that carry something to report.
func recentCompleted(sessions []*types.Session) []*types.Session {
	out := make([]*types.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.Summary != "" || session.Status != types.SessionActive {
			out = append(out, session)
		}
	}
	return out
}
