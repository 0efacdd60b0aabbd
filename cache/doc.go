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

/*
Package cache provides the hot-path read cache fronting the storage
engine.

The single-tier Cache is a generic LRU with per-entry TTL, an optional
byte budget, single-flight loader coalescing, batch prefetch, pattern
invalidation, and warm-up. The TieredCache wraps a single-tier L1
together with loader/writer collaborator callbacks, typically backed by
the storage engine or by the Redis remote tier.

Example:

	import "github.com/sage-x-project/memkit/cache"

	// Create cache
	c := cache.New[*types.Entry](cache.Config[*types.Entry]{
	    MaxSize: 1000,
	    TTL:     5 * time.Minute,
	})
	defer c.Shutdown()

	// Set cache entry
	c.Set("patterns/auth", entry, 0)

	// Get cache entry
	if entry, ok := c.Get("patterns/auth"); ok {
	    // Use cached entry
	}

	// Load-through with single-flight coalescing
	entry, err := c.GetOrSet("patterns/auth", func() (*types.Entry, error) {
	    return engine.GetByKey(ctx, "patterns", "auth")
	})

Cache transitions emit events (cache:hit, cache:miss, cache:set,
cache:delete, cache:evict; l1:hit, l2:hit, l2:write for the tiered
variants) on the bus passed in the configuration.
*/
package cache
