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

package memory

import (
	"context"
	"fmt"

	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

// CheckpointNamespace holds checkpoint entries written by Checkpoint.
const CheckpointNamespace = "checkpoints"

// StartSession opens (or re-opens) a session and makes it current.
func (s *Service) StartSession(ctx context.Context, sessionID, project, prompt string) (*types.Session, error) {
	if sessionID == "" {
		sessionID = types.GenerateSessionID()
	}

	session, err := s.engine.EnsureSession(ctx, sessionID, project, prompt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.currentSession = session
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSessionStarted(project)
	}
	return session, nil
}

// GetCurrentSession returns the active session, or nil.
func (s *Service) GetCurrentSession() *types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSession
}

// Checkpoint records a labeled checkpoint entry bound to the current
// session. Fails with ErrNoActiveSession when no session is active.
func (s *Service) Checkpoint(ctx context.Context, label string) (*types.Entry, error) {
	session := s.GetCurrentSession()
	if session == nil {
		return nil, errors.ErrNoActiveSession
	}
	if label == "" {
		return nil, errors.ErrInvalidInput.WithMessage("checkpoint label cannot be empty")
	}

	entry := &types.Entry{
		Namespace: CheckpointNamespace,
		Key:       fmt.Sprintf("%s/%s", session.SessionID, label),
		Content:   label,
		Type:      types.MemoryEpisodic,
		Metadata: map[string]interface{}{
			"sessionId": session.SessionID,
			"label":     label,
			"project":   session.Project,
		},
	}
	if err := s.StoreEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EndSession closes the current session with an optional summary
// line.
func (s *Service) EndSession(ctx context.Context, summary string) error {
	session := s.GetCurrentSession()
	if session == nil {
		return errors.ErrNoActiveSession
	}

	status := types.SessionCompleted
	if summary == "" {
		status = types.SessionAbandoned
	}

	if err := s.engine.EndSession(ctx, session.SessionID, summary, status); err != nil {
		return err
	}

	s.mu.Lock()
	s.currentSession = nil
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSessionEnded(session.Project, string(status))
	}
	return nil
}

// GetRecentSessions returns the most recent sessions of a project.
func (s *Service) GetRecentSessions(ctx context.Context, project string, limit int) ([]*types.Session, error) {
	return s.engine.GetRecentSessions(ctx, project, limit)
}
