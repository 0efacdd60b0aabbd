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

// Package migrate imports directories of Markdown notes into the
// memory store.
//
// Each file becomes one top-level entry; each section whose body is
// substantial (at least 100 characters) becomes an additional entry
// whose references list carries the parent entry's id. Content hashes
// (BLAKE2b) stored in entry metadata make re-imports idempotent:
// unchanged files are skipped.
//
// The import loop is recoverable: a failing file is recorded in the
// result and the batch continues.
package migrate
