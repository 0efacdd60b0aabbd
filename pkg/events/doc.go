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

// Package events provides the in-memory event bus used to fan out typed
// events from the storage engine, cache, vector index, and hook pipeline.
//
// The bus is topic-filtered pub/sub with buffered channels and
// non-blocking publish: a slow subscriber drops events rather than
// stalling a write path. Subscribers receive events either on a channel
// (Subscribe) or via a callback dispatched from the broadcast loop
// (SubscribeFunc).
//
// Event types follow a component:action naming scheme, e.g. entry:stored,
// cache:evict, point:added, session:ended.
package events
