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

// Package pipeline implements the hook ingestion path: normalized
// host events become durable sessions, prompts, observations, and
// session summaries.
//
// The pipeline consumes JSON hook envelopes from the host, never
// throws on malformed input (a broken envelope degrades to a
// synthesized record), classifies tool invocations into observation
// types, synthesizes deterministic titles, truncates tool responses
// to the configured byte cap, and optionally enriches observations
// through an EnrichmentOracle. Oracle failures, refusals, and
// timeouts always recover into the deterministic templates.
//
// Event kinds and their handlers:
//
//   - session start: render recent project context as Markdown
//   - prompt submit: ensure the session, append a numbered prompt
//   - tool use:      skip internal tools, persist an observation
//   - session end:   fold the session into a SessionSummary
//
// Hook errors never block the host: handlers log and return the
// standard response envelope with continue=true.
package pipeline
