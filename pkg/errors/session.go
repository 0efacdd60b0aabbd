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

package errors

// Session errors
var (
	// ErrNoActiveSession indicates a checkpoint without a prior StartSession.
	ErrNoActiveSession = &Error{
		Category: CategorySession,
		Code:     "NO_ACTIVE_SESSION",
		Message:  "no active session",
	}

	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = &Error{
		Category: CategorySession,
		Code:     "SESSION_NOT_FOUND",
		Message:  "session not found",
	}

	// ErrDuplicatePrompt indicates a (sessionId, promptNumber) collision.
	ErrDuplicatePrompt = &Error{
		Category: CategorySession,
		Code:     "DUPLICATE_PROMPT",
		Message:  "prompt number already recorded for session",
	}
)
