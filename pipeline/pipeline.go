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

	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/storage"
)

// Config holds pipeline configuration.
type Config struct {
	// Store persists sessions, prompts, observations, and summaries.
	// Required.
	Store storage.Engine

	// Oracle enriches observations. Optional: without it the
	// deterministic templates stand alone.
	Oracle EnrichmentOracle

	// ResponseLimit caps serialized tool responses in bytes.
	// Default 5000.
	ResponseLimit int

	// Logger receives structured logs. Optional.
	Logger logging.Logger
}

// Pipeline turns normalized host events into durable records.
type Pipeline struct {
	store         storage.Engine
	oracle        EnrichmentOracle
	responseLimit int
	logger        logging.Logger
}

// New creates a pipeline.
func New(config Config) *Pipeline {
	limit := config.ResponseLimit
	if limit == 0 {
		limit = DefaultResponseLimit
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewStructuredLogger(logging.LevelInfo)
	}

	return &Pipeline{
		store:         config.Store,
		oracle:        config.Oracle,
		responseLimit: limit,
		logger:        logger,
	}
}

// HandleSessionStart ensures the session exists and renders the
// recent project context as a Markdown payload. The payload is empty
// when the project has no history.
func (p *Pipeline) HandleSessionStart(ctx context.Context, event *Event) (string, error) {
	if _, err := p.store.EnsureSession(ctx, event.SessionID, event.Project, event.Prompt); err != nil {
		return "", err
	}
	return p.renderContext(ctx, event.Project)
}

// HandlePrompt ensures the session exists and appends a numbered
// prompt.
func (p *Pipeline) HandlePrompt(ctx context.Context, event *Event) (*types.UserPrompt, error) {
	if _, err := p.store.EnsureSession(ctx, event.SessionID, event.Project, event.Prompt); err != nil {
		return nil, err
	}
	return p.store.AddPrompt(ctx, event.SessionID, event.Prompt)
}

// HandleToolUse records a tool invocation as an observation. Internal
// tools are skipped, reported by the nil observation. Enrichment is
// attempted when an oracle is configured and always recovers into the
// deterministic record.
func (p *Pipeline) HandleToolUse(ctx context.Context, event *Event) (*types.Observation, error) {
	if IsInternalTool(event.ToolName) {
		return nil, nil
	}

	if _, err := p.store.EnsureSession(ctx, event.SessionID, event.Project, ""); err != nil {
		return nil, err
	}

	obs := BuildObservation(event, p.responseLimit)

	if prompts, err := p.store.GetSessionPrompts(ctx, event.SessionID); err == nil && len(prompts) > 0 {
		obs.PromptNumber = prompts[len(prompts)-1].PromptNumber
	}

	p.applyEnrichment(ctx, obs)

	if err := p.store.SaveObservation(ctx, obs); err != nil {
		return nil, err
	}
	return obs, nil
}

// applyEnrichment consults the oracle and merges its answer into the
// observation. Refusals, timeouts, and errors leave the deterministic
// record standing.
func (p *Pipeline) applyEnrichment(ctx context.Context, obs *types.Observation) {
	if p.oracle == nil {
		return
	}

	enrichment, err := p.oracle.Enrich(ctx, obs.ToolName, obs.ToolInput, obs.ToolResponse)
	if err != nil {
		p.logger.Debug(ctx, "enrichment fell back to templates",
			logging.String("observation", obs.ID),
			logging.Error(err),
		)
		return
	}
	if enrichment == nil {
		return
	}

	obs.Subtitle = enrichment.Subtitle
	obs.Narrative = enrichment.Narrative
	obs.Facts = enrichment.Facts
	obs.Concepts = enrichment.Concepts
}

// HandleSessionEnd folds the session into a SessionSummary, persists
// it, and marks the session completed with the one-line rendition.
func (p *Pipeline) HandleSessionEnd(ctx context.Context, event *Event) (*types.SessionSummary, error) {
	prompts, err := p.store.GetSessionPrompts(ctx, event.SessionID)
	if err != nil {
		return nil, err
	}
	observations, err := p.store.GetSessionObservations(ctx, event.SessionID)
	if err != nil {
		return nil, err
	}

	summary := BuildSummary(event.SessionID, event.Project, prompts, observations)
	if err := p.store.SaveSummary(ctx, summary); err != nil {
		return nil, err
	}

	if err := p.store.EndSession(ctx, event.SessionID, RenderSummaryLine(summary), types.SessionCompleted); err != nil {
		// A summary without a session record is still worth keeping;
		// report only unexpected failures.
		if !errors.Is(err, errors.ErrSessionNotFound) {
			return nil, err
		}
	}
	return summary, nil
}

// EnrichObservation re-runs enrichment for a stored observation and
// persists the result. Used by the enrich CLI subcommand.
func (p *Pipeline) EnrichObservation(ctx context.Context, observationID string) (*types.Observation, error) {
	if p.oracle == nil {
		return nil, errors.ErrProviderNotSet.WithMessage("no enrichment oracle configured")
	}

	obs, err := p.store.GetObservation(ctx, observationID)
	if err != nil {
		return nil, err
	}

	enrichment, err := p.oracle.Enrich(ctx, obs.ToolName, obs.ToolInput, obs.ToolResponse)
	if err != nil {
		return nil, err
	}
	if enrichment == nil {
		return nil, errors.ErrOracleRefused
	}

	obs.Subtitle = enrichment.Subtitle
	obs.Narrative = enrichment.Narrative
	obs.Facts = enrichment.Facts
	obs.Concepts = enrichment.Concepts

	if err := p.store.UpdateObservation(ctx, obs); err != nil {
		return nil, err
	}
	return obs, nil
}
