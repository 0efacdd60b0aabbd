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

	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
)

// EnsureSession creates the session when absent. Idempotent by
// sessionID.
func (p *PostgresEngine) EnsureSession(ctx context.Context, sessionID, project, prompt string) (*types.Session, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.ErrInvalidInput.WithMessage("sessionID cannot be empty")
	}

	now := types.NowMillis()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, project, prompt, started_at, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO NOTHING`,
		sessionID, project, prompt, now, string(types.SessionActive),
	)
	if err != nil {
		return nil, errors.ErrStore.WithMessage("ensure session").Wrap(err)
	}

	return p.GetSession(ctx, sessionID)
}

// GetSession returns a session by its opaque id.
func (p *PostgresEngine) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	row := p.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrSessionNotFound.WithDetail("sessionId", sessionID)
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	return session, nil
}

// EndSession marks a session ended.
func (p *PostgresEngine) EndSession(ctx context.Context, sessionID, summary string, status types.SessionStatus) error {
	if err := p.ready(); err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = $1, summary = $2, status = $3 WHERE session_id = $4`,
		types.NowMillis(), summary, string(status), sessionID,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("end session").Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.ErrSessionNotFound.WithDetail("sessionId", sessionID)
	}

	p.publish(events.EventSessionEnded, sessionID)
	return nil
}

// GetRecentSessions returns the most recently started sessions of a
// project.
func (p *PostgresEngine) GetRecentSessions(ctx context.Context, project string, limit int) ([]*types.Session, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE project = $1
		 ORDER BY started_at DESC, id DESC LIMIT $2`,
		project, limit,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// AddPrompt appends a prompt with the next dense promptNumber.
func (p *PostgresEngine) AddPrompt(ctx context.Context, sessionID, promptText string) (*types.UserPrompt, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.ErrInvalidInput.WithMessage("sessionID cannot be empty")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_prompts WHERE session_id = $1`, sessionID,
	).Scan(&count); err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}

	prompt := &types.UserPrompt{
		SessionID:    sessionID,
		PromptNumber: count + 1,
		PromptText:   promptText,
		CreatedAt:    types.NowMillis(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_prompts (session_id, prompt_number, prompt_text, created_at)
		VALUES ($1, $2, $3, $4)`,
		prompt.SessionID, prompt.PromptNumber, prompt.PromptText, prompt.CreatedAt,
	)
	if err != nil {
		return nil, errors.ErrDuplicatePrompt.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.ErrTxFailed.Wrap(err)
	}
	return prompt, nil
}

// GetSessionPrompts returns a session's prompts in ascending order.
func (p *PostgresEngine) GetSessionPrompts(ctx context.Context, sessionID string) ([]*types.UserPrompt, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT session_id, prompt_number, prompt_text, created_at
		FROM user_prompts WHERE session_id = $1 ORDER BY prompt_number ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var prompts []*types.UserPrompt
	for rows.Next() {
		var pr types.UserPrompt
		if err := rows.Scan(&pr.SessionID, &pr.PromptNumber, &pr.PromptText, &pr.CreatedAt); err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		prompts = append(prompts, &pr)
	}
	return prompts, rows.Err()
}

// SaveObservation persists an observation and increments the owning
// session's observation count.
func (p *PostgresEngine) SaveObservation(ctx context.Context, obs *types.Observation) error {
	if err := p.ready(); err != nil {
		return err
	}
	if obs == nil {
		return errors.ErrInvalidInput.WithMessage("observation is nil")
	}
	if obs.ID == "" {
		obs.ID = types.GenerateObservationID()
	}
	if obs.Timestamp == 0 {
		obs.Timestamp = types.NowMillis()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO observations (id, session_id, project, tool_name, tool_input,
			tool_response, cwd, timestamp, type, title, subtitle, narrative,
			files_read, files_modified, facts, concepts, prompt_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		obs.ID, obs.SessionID, obs.Project, obs.ToolName, obs.ToolInput,
		obs.ToolResponse, obs.CWD, obs.Timestamp, string(obs.Type),
		obs.Title, obs.Subtitle, obs.Narrative,
		encodeJSON(obs.FilesRead, "[]"), encodeJSON(obs.FilesModified, "[]"),
		encodeJSON(obs.Facts, "[]"), encodeJSON(obs.Concepts, "[]"),
		obs.PromptNumber,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("save observation").Wrap(err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE sessions SET observation_count = observation_count + 1 WHERE session_id = $1`,
		obs.SessionID); err != nil {
		return errors.ErrStore.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	p.publish(events.EventObservationRecorded, obs.ID)
	return nil
}

// GetObservation returns an observation by id.
func (p *PostgresEngine) GetObservation(ctx context.Context, id string) (*types.Observation, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	row := p.db.QueryRowContext(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE id = $1`, id)
	obs, err := scanObservation(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	return obs, nil
}

// UpdateObservation replaces the enrichable fields of an observation.
func (p *PostgresEngine) UpdateObservation(ctx context.Context, obs *types.Observation) error {
	if err := p.ready(); err != nil {
		return err
	}
	if obs == nil || obs.ID == "" {
		return errors.ErrInvalidInput.WithMessage("observation id required")
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE observations SET subtitle = $1, narrative = $2, facts = $3, concepts = $4
		WHERE id = $5`,
		obs.Subtitle, obs.Narrative,
		encodeJSON(obs.Facts, "[]"), encodeJSON(obs.Concepts, "[]"),
		obs.ID,
	)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// GetSessionObservations returns a session's observations in stable
// order.
func (p *PostgresEngine) GetSessionObservations(ctx context.Context, sessionID string) ([]*types.Observation, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE session_id = $1 ORDER BY timestamp ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// GetRecentObservations returns the most recent observations of a
// project.
func (p *PostgresEngine) GetRecentObservations(ctx context.Context, project string, limit int) ([]*types.Observation, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE project = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`,
		project, limit,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	return collectObservations(rows)
}

// SaveSummary persists a session summary.
func (p *PostgresEngine) SaveSummary(ctx context.Context, summary *types.SessionSummary) error {
	if err := p.ready(); err != nil {
		return err
	}
	if summary == nil {
		return errors.ErrInvalidInput.WithMessage("summary is nil")
	}
	if summary.CreatedAt == 0 {
		summary.CreatedAt = types.NowMillis()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO session_summaries (session_id, project, request, completed,
			files_read, files_modified, next_steps, notes, prompt_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		summary.SessionID, summary.Project, summary.Request, summary.Completed,
		encodeJSON(summary.FilesRead, "[]"), encodeJSON(summary.FilesModified, "[]"),
		summary.NextSteps, encodeJSON(summary.Notes, "[]"),
		summary.PromptNumber, summary.CreatedAt,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("save summary").Wrap(err)
	}
	return nil
}

// GetRecentSummaries returns the most recent summaries of a project.
func (p *PostgresEngine) GetRecentSummaries(ctx context.Context, project string, limit int) ([]*types.SessionSummary, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT session_id, project, request, completed, files_read, files_modified,
			next_steps, notes, prompt_number, created_at
		FROM session_summaries WHERE project = $1
		ORDER BY created_at DESC LIMIT $2`,
		project, limit,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var summaries []*types.SessionSummary
	for rows.Next() {
		var (
			sum                             types.SessionSummary
			request, completed, nextSteps   sql.NullString
			filesRead, filesModified, notes string
		)
		err := rows.Scan(
			&sum.SessionID, &sum.Project, &request, &completed,
			&filesRead, &filesModified, &nextSteps, &notes,
			&sum.PromptNumber, &sum.CreatedAt,
		)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		sum.Request = request.String
		sum.Completed = completed.String
		sum.NextSteps = nextSteps.String
		sum.FilesRead = decodeStringList(filesRead)
		sum.FilesModified = decodeStringList(filesModified)
		sum.Notes = decodeStringList(notes)
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}
