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

package types

import (
	"github.com/google/uuid"

	"github.com/sage-x-project/memkit/pkg/errors"
)

// GenerateEntryID generates a new unique entry ID.
func GenerateEntryID() string {
	return "mem-" + uuid.New().String()
}

// GenerateObservationID generates a new unique observation ID.
func GenerateObservationID() string {
	return "obs-" + uuid.New().String()
}

// GenerateSessionID generates a new unique session ID. Used when the host
// envelope carries none.
func GenerateSessionID() string {
	return "session-" + uuid.New().String()
}

// ValidateEntry checks the invariants every entry must satisfy before it
// is persisted.
func ValidateEntry(e *Entry) error {
	if e == nil {
		return errors.ErrInvalidInput.WithMessage("entry is nil")
	}
	if e.Key == "" {
		return errors.ErrEmptyKey
	}
	if len(e.Key) > MaxKeyLength {
		return errors.ErrKeyTooLong.WithDetail("length", len(e.Key))
	}
	if e.Namespace == "" {
		return errors.ErrEmptyNamespace
	}
	if e.Content == "" {
		return errors.ErrEmptyContent
	}
	if e.Type != "" && !e.Type.IsValid() {
		return errors.ErrValidation.WithDetail("type", string(e.Type))
	}
	return nil
}
