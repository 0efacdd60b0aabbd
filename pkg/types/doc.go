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

// Package types defines the core record types shared across memkit.
//
// The primary record is the Entry: a piece of knowledge addressed by a
// globally unique id and by a (namespace, key) pair, carrying free-form
// content, tags, metadata, an optional embedding vector, and access
// bookkeeping. Around it sit the session records produced by the hook
// pipeline: Session, UserPrompt, Observation, and SessionSummary.
//
// All timestamps are epoch milliseconds. Records are plain data; the
// storage engine owns persistence and enforces the uniqueness invariants
// ((namespace, key) unique, id unique, version monotonic).
package types
