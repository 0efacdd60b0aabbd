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

package cache

import (
	"container/list"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sage-x-project/memkit/pkg/events"
)

// Sizer computes the byte cost of a cached value for the memory budget.
type Sizer[T any] func(value T) int64

// Config holds cache configuration.
type Config[T any] struct {
	// MaxSize is the maximum number of entries. 0 means unbounded.
	MaxSize int

	// MaxMemory is the byte budget computed by Sizer. 0 disables the
	// budget.
	MaxMemory int64

	// TTL is the default time-to-live. 0 means entries never expire
	// unless a per-entry TTL is given.
	TTL time.Duration

	// CleanupInterval is the background expiry sweep period. 0 disables
	// the sweep; expired entries are still removed lazily on access.
	CleanupInterval time.Duration

	// Sizer computes the byte cost of a value. Defaults to the length
	// of the JSON encoding.
	Sizer Sizer[T]

	// Bus receives cache events. Optional.
	Bus *events.Bus
}

// Stats holds cache statistics.
type Stats struct {
	Size        int     `json:"size"`
	MemoryUsage int64   `json:"memoryUsage"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	HitRate     float64 `json:"hitRate"`
}

// KeyEvent is the payload published with cache events.
type KeyEvent struct {
	Key string
}

type cacheEntry[T any] struct {
	key       string
	value     T
	size      int64
	expiresAt time.Time // zero means no expiry
	element   *list.Element
}

// Cache is a single-tier LRU cache with TTL and an optional byte
// budget. All methods are safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[T]
	lru     *list.List // front is most recently used
	config  Config[T]

	memoryUsage int64
	hits        int64
	misses      int64
	evictions   int64

	flight   singleflight.Group
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new cache. When CleanupInterval is set, a background
// sweep removes expired entries until Shutdown is called.
func New[T any](config Config[T]) *Cache[T] {
	if config.Sizer == nil {
		config.Sizer = jsonSizer[T]
	}

	c := &Cache[T]{
		entries: make(map[string]*cacheEntry[T]),
		lru:     list.New(),
		config:  config,
		stopCh:  make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}

	return c
}

// jsonSizer is the default sizer: the length of the JSON encoding.
func jsonSizer[T any](value T) int64 {
	data, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

// Get retrieves a value. An expired entry is treated as absent and
// removed. A hit moves the entry to the most-recently-used position.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		c.misses++
		c.publish(events.EventCacheMiss, key)
		var zero T
		return zero, false
	}

	if entry.expired(time.Now()) {
		c.removeEntry(entry)
		c.misses++
		c.publish(events.EventCacheMiss, key)
		var zero T
		return zero, false
	}

	c.lru.MoveToFront(entry.element)
	c.hits++
	c.publish(events.EventCacheHit, key)

	return entry.value, true
}

// Set inserts or replaces a value. Replacing does not count as an
// eviction. ttl overrides the default TTL; 0 uses the default and a
// negative ttl disables expiry for the entry.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(key, value, ttl)
	c.evictOverBudget(true)
	c.publish(events.EventCacheSet, key)
}

// set inserts without eviction. Caller holds the lock.
func (c *Cache[T]) set(key string, value T, ttl time.Duration) {
	size := c.config.Sizer(value)
	expiresAt := c.expiry(ttl)

	if entry, found := c.entries[key]; found {
		c.memoryUsage += size - entry.size
		entry.value = value
		entry.size = size
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry[T]{
		key:       key,
		value:     value,
		size:      size,
		expiresAt: expiresAt,
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.memoryUsage += size
}

func (c *Cache[T]) expiry(ttl time.Duration) time.Time {
	if ttl < 0 {
		return time.Time{}
	}
	if ttl == 0 {
		ttl = c.config.TTL
	}
	if ttl == 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// evictOverBudget evicts from the LRU tail until the cache is within
// the size and byte budgets. Caller holds the lock.
func (c *Cache[T]) evictOverBudget(count bool) {
	for c.overBudget() {
		back := c.lru.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*cacheEntry[T])
		c.removeEntry(entry)
		if count {
			c.evictions++
			c.publish(events.EventCacheEvict, entry.key)
		}
	}
}

func (c *Cache[T]) overBudget() bool {
	if c.config.MaxSize > 0 && len(c.entries) > c.config.MaxSize {
		return true
	}
	if c.config.MaxMemory > 0 && c.memoryUsage > c.config.MaxMemory {
		return true
	}
	return false
}

// Delete removes a value. Returns whether an entry was removed.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return false
	}

	c.removeEntry(entry)
	c.publish(events.EventCacheDelete, key)
	return true
}

// Clear removes all entries. Statistics counters are preserved.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry[T])
	c.lru.Init()
	c.memoryUsage = 0
}

// Has reports whether a live (non-expired) entry exists. Has does not
// touch LRU order or the hit/miss counters.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return false
	}
	if entry.expired(time.Now()) {
		c.removeEntry(entry)
		return false
	}
	return true
}

// GetOrSet returns the cached value, invoking loader on a miss. For
// concurrent callers of the same absent key the loader runs exactly
// once; every caller receives its result.
func (c *Cache[T]) GetOrSet(key string, loader func() (T, error)) (T, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have populated the key between
		// the miss above and acquiring the flight slot.
		if value, ok := c.Get(key); ok {
			return value, nil
		}

		value, err := loader()
		if err != nil {
			return nil, err
		}
		c.Set(key, value, 0)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Prefetch computes the subset of keys not yet cached, invokes
// batchLoader once with only those keys, and caches each returned
// pair. A nil batchLoader or an empty missing set is a no-op.
func (c *Cache[T]) Prefetch(keys []string, batchLoader func([]string) (map[string]T, error)) error {
	if batchLoader == nil {
		return nil
	}

	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		if !c.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	loaded, err := batchLoader(missing)
	if err != nil {
		return err
	}

	for key, value := range loaded {
		c.Set(key, value, 0)
	}
	return nil
}

// WarmUp bulk-inserts seed values. Evictions forced by the warm-up do
// not count toward the evictions statistic.
func (c *Cache[T]) WarmUp(seed map[string]T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range seed {
		c.set(key, value, 0)
	}
	c.evictOverBudget(false)
}

// InvalidatePattern removes entries whose key matches the pattern and
// returns the count invalidated. A pattern carrying regexp
// metacharacters is compiled as a regular expression; anything else
// matches as a plain substring of the key.
func (c *Cache[T]) InvalidatePattern(pattern string) int {
	match := matcherFor(pattern)

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.entries {
		if match(key) {
			c.removeEntry(entry)
			c.publish(events.EventCacheDelete, key)
			count++
		}
	}
	return count
}

func matcherFor(pattern string) func(string) bool {
	if strings.ContainsAny(pattern, `\^$.|?*+()[]{}`) {
		if re, err := regexp.Compile(pattern); err == nil {
			return re.MatchString
		}
	}
	return func(key string) bool {
		return strings.Contains(key, pattern)
	}
}

// GetStats returns a snapshot of cache statistics.
func (c *Cache[T]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Size:        len(c.entries),
		MemoryUsage: c.memoryUsage,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// Len returns the number of cached entries, including not yet swept
// expired ones.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Shutdown stops the background sweep and clears all state.
func (c *Cache[T]) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.Clear()
}

// removeEntry removes an entry from the map and LRU list. Caller holds
// the lock.
func (c *Cache[T]) removeEntry(entry *cacheEntry[T]) {
	delete(c.entries, entry.key)
	c.lru.Remove(entry.element)
	c.memoryUsage -= entry.size
}

func (c *Cache[T]) publish(eventType events.EventType, key string) {
	if c.config.Bus != nil {
		c.config.Bus.Publish(eventType, KeyEvent{Key: key})
	}
}

func (e *cacheEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// cleanupLoop periodically removes expired entries.
func (c *Cache[T]) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache[T]) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if entry.expired(now) {
			c.removeEntry(entry)
		}
	}
}
