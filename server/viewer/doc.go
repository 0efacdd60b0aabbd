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

// Package viewer serves the read-only HTTP view over a memory store:
// JSON endpoints for entries, namespaces, sessions, stats, and health,
// plus a websocket stream relaying bus events to connected clients.
// Observations and summaries have no endpoint.
//
// The viewer is a peripheral consumer of the facade. It binds to
// localhost by default, rate-limits clients with a sliding window when
// Config.RateLimit is set, wraps every route in the observability
// middleware when Config.Middleware is set, and shuts down gracefully.
package viewer
