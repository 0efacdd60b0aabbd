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
// sessionID: a second call returns the existing record untouched.
func (s *SQLiteEngine) EnsureSession(ctx context.Context, sessionID, project, prompt string) (*types.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.ErrInvalidInput.WithMessage("sessionID cannot be empty")
	}

	existing, err := s.GetSession(ctx, sessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errors.ErrSessionNotFound) {
		return nil, err
	}

	now := types.NowMillis()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, project, prompt, started_at, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		sessionID, project, prompt, now, string(types.SessionActive),
	)
	if err != nil {
		return nil, errors.ErrStore.WithMessage("ensure session").Wrap(err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		// Raced with another creator; the row exists now.
		return s.GetSession(ctx, sessionID)
	}

	session := &types.Session{
		SessionID: sessionID,
		Project:   project,
		Prompt:    prompt,
		StartedAt: now,
		Status:    types.SessionActive,
	}
	if id, err := res.LastInsertId(); err == nil {
		session.ID = id
	}

	s.publish(events.EventSessionStarted, sessionID)
	return session, nil
}

const sessionColumns = `id, session_id, project, prompt, started_at, ended_at,
	observation_count, summary, status`

func scanSession(row interface{ Scan(...interface{}) error }) (*types.Session, error) {
	var (
		sess    types.Session
		prompt  sql.NullString
		endedAt sql.NullInt64
		summary sql.NullString
	)
	err := row.Scan(
		&sess.ID, &sess.SessionID, &sess.Project, &prompt, &sess.StartedAt,
		&endedAt, &sess.ObservationCount, &summary, &sess.Status,
	)
	if err != nil {
		return nil, err
	}
	sess.Prompt = prompt.String
	sess.EndedAt = endedAt.Int64
	sess.Summary = summary.String
	return &sess, nil
}

// GetSession returns a session by its opaque id.
func (s *SQLiteEngine) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
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
func (s *SQLiteEngine) EndSession(ctx context.Context, sessionID, summary string, status types.SessionStatus) error {
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, summary = ?, status = ? WHERE session_id = ?`,
		types.NowMillis(), summary, string(status), sessionID,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("end session").Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.ErrSessionNotFound.WithDetail("sessionId", sessionID)
	}

	s.publish(events.EventSessionEnded, sessionID)
	return nil
}

// GetRecentSessions returns the most recently started sessions of a
// project.
func (s *SQLiteEngine) GetRecentSessions(ctx context.Context, project string, limit int) ([]*types.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE project = ?
		 ORDER BY started_at DESC, id DESC LIMIT ?`,
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

// AddPrompt appends a prompt with the next dense promptNumber. The
// (sessionId, promptNumber) uniqueness constraint rejects a racing
// appender that took the same number with ErrDuplicatePrompt; AddPrompt
// does not retry it.
func (s *SQLiteEngine) AddPrompt(ctx context.Context, sessionID, promptText string) (*types.UserPrompt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.ErrInvalidInput.WithMessage("sessionID cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_prompts WHERE session_id = ?`, sessionID,
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
		VALUES (?, ?, ?, ?)`,
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

// GetSessionPrompts returns a session's prompts in ascending
// promptNumber order.
func (s *SQLiteEngine) GetSessionPrompts(ctx context.Context, sessionID string) ([]*types.UserPrompt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, prompt_number, prompt_text, created_at
		FROM user_prompts WHERE session_id = ? ORDER BY prompt_number ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	var prompts []*types.UserPrompt
	for rows.Next() {
		var p types.UserPrompt
		if err := rows.Scan(&p.SessionID, &p.PromptNumber, &p.PromptText, &p.CreatedAt); err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		prompts = append(prompts, &p)
	}
	return prompts, rows.Err()
}

const observationColumns = `id, session_id, project, tool_name, tool_input, tool_response,
	cwd, timestamp, type, title, subtitle, narrative, files_read, files_modified,
	facts, concepts, prompt_number`

func scanObservation(row interface{ Scan(...interface{}) error }) (*types.Observation, error) {
	var (
		o                                         types.Observation
		toolInput, toolResponse, cwd              sql.NullString
		title, subtitle, narrative                sql.NullString
		filesRead, filesModified, facts, concepts string
	)
	err := row.Scan(
		&o.ID, &o.SessionID, &o.Project, &o.ToolName, &toolInput, &toolResponse,
		&cwd, &o.Timestamp, &o.Type, &title, &subtitle, &narrative,
		&filesRead, &filesModified, &facts, &concepts, &o.PromptNumber,
	)
	if err != nil {
		return nil, err
	}

	o.ToolInput = toolInput.String
	o.ToolResponse = toolResponse.String
	o.CWD = cwd.String
	o.Title = title.String
	o.Subtitle = subtitle.String
	o.Narrative = narrative.String
	o.FilesRead = decodeStringList(filesRead)
	o.FilesModified = decodeStringList(filesModified)
	o.Facts = decodeStringList(facts)
	o.Concepts = decodeStringList(concepts)
	return &o, nil
}

// SaveObservation persists an observation and increments the owning
// session's observation count in the same transaction.
func (s *SQLiteEngine) SaveObservation(ctx context.Context, obs *types.Observation) error {
	if err := s.ready(); err != nil {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO observations (id, session_id, project, tool_name, tool_input,
			tool_response, cwd, timestamp, type, title, subtitle, narrative,
			files_read, files_modified, facts, concepts, prompt_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET observation_count = observation_count + 1 WHERE session_id = ?`,
		obs.SessionID,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("bump observation count").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrTxFailed.Wrap(err)
	}

	s.publish(events.EventObservationRecorded, obs.ID)
	return nil
}

// GetObservation returns an observation by id.
func (s *SQLiteEngine) GetObservation(ctx context.Context, id string) (*types.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE id = ?`, id)
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
func (s *SQLiteEngine) UpdateObservation(ctx context.Context, obs *types.Observation) error {
	if err := s.ready(); err != nil {
		return err
	}
	if obs == nil || obs.ID == "" {
		return errors.ErrInvalidInput.WithMessage("observation id required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE observations SET subtitle = ?, narrative = ?, facts = ?, concepts = ?
		WHERE id = ?`,
		obs.Subtitle, obs.Narrative,
		encodeJSON(obs.Facts, "[]"), encodeJSON(obs.Concepts, "[]"),
		obs.ID,
	)
	if err != nil {
		return errors.ErrStore.WithMessage("update observation").Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// GetSessionObservations returns a session's observations ordered by
// timestamp, tie-broken by id for a stable total order.
func (s *SQLiteEngine) GetSessionObservations(ctx context.Context, sessionID string) ([]*types.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE session_id = ? ORDER BY timestamp ASC, id ASC`,
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
func (s *SQLiteEngine) GetRecentObservations(ctx context.Context, project string, limit int) ([]*types.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+observationColumns+` FROM observations
		 WHERE project = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		project, limit,
	)
	if err != nil {
		return nil, errors.ErrStore.Wrap(err)
	}
	defer rows.Close()

	return collectObservations(rows)
}

func collectObservations(rows *sql.Rows) ([]*types.Observation, error) {
	var observations []*types.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, errors.ErrStore.Wrap(err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// SaveSummary persists a session summary.
func (s *SQLiteEngine) SaveSummary(ctx context.Context, summary *types.SessionSummary) error {
	if err := s.ready(); err != nil {
		return err
	}
	if summary == nil {
		return errors.ErrInvalidInput.WithMessage("summary is nil")
	}
	if summary.CreatedAt == 0 {
		summary.CreatedAt = types.NowMillis()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_summaries (session_id, project, request, completed,
			files_read, files_modified, next_steps, notes, prompt_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLiteEngine) GetRecentSummaries(ctx context.Context, project string, limit int) ([]*types.SessionSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, project, request, completed, files_read, files_modified,
			next_steps, notes, prompt_number, created_at
		FROM session_summaries WHERE project = ?
		ORDER BY created_at DESC LIMIT ?`,
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
