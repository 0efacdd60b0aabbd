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

// Package tools exposes the memory operation surface consumed by the
// external RPC layer: seven named tools with enumerated argument
// schemas, each executing against the memory facade.
//
// The operations are memory_save, memory_search, memory_timeline,
// memory_details, memory_recall, memory_list, and memory_status.
// MemoryTools wires them into a Registry; the registry's LLM format
// renders the schemas for function-calling transports.
package tools
