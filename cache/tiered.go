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
	"context"

	"github.com/sage-x-project/memkit/pkg/events"
)

// Loader fetches a value from the backing tier on an L1 miss. The
// second return reports whether the key was found.
type Loader[T any] func(ctx context.Context, key string) (T, bool, error)

// Writer propagates a write to the backing tier.
type Writer[T any] func(ctx context.Context, key string, value T) error

// TieredCache wraps a single-tier L1 together with loader/writer
// collaborator callbacks. A loader hit is promoted into L1. Writes go
// through to the writer. Delete and Clear affect L1 only; statistics
// reflect L1.
type TieredCache[T any] struct {
	l1     *Cache[T]
	loader Loader[T]
	writer Writer[T]
	bus    *events.Bus
}

// NewTiered creates a tiered cache over an existing L1.
func NewTiered[T any](l1 *Cache[T], loader Loader[T], writer Writer[T], bus *events.Bus) *TieredCache[T] {
	return &TieredCache[T]{
		l1:     l1,
		loader: loader,
		writer: writer,
		bus:    bus,
	}
}

// Get consults L1 first, then the loader. A loader hit is promoted
// into L1.
func (t *TieredCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	if value, ok := t.l1.Get(key); ok {
		t.publish(events.EventL1Hit, key)
		return value, true, nil
	}

	if t.loader == nil {
		var zero T
		return zero, false, nil
	}

	value, found, err := t.loader(ctx, key)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}

	t.l1.Set(key, value, 0)
	t.publish(events.EventL2Hit, key)
	return value, true, nil
}

// Set writes through: stores in L1 and invokes the writer.
func (t *TieredCache[T]) Set(ctx context.Context, key string, value T) error {
	t.l1.Set(key, value, 0)

	if t.writer == nil {
		return nil
	}
	if err := t.writer(ctx, key, value); err != nil {
		return err
	}
	t.publish(events.EventL2Write, key)
	return nil
}

// Delete removes a key from L1 only.
func (t *TieredCache[T]) Delete(key string) bool {
	return t.l1.Delete(key)
}

// Clear clears L1 only.
func (t *TieredCache[T]) Clear() {
	t.l1.Clear()
}

// GetStats returns L1 statistics.
func (t *TieredCache[T]) GetStats() Stats {
	return t.l1.GetStats()
}

func (t *TieredCache[T]) publish(eventType events.EventType, key string) {
	if t.bus != nil {
		t.bus.Publish(eventType, KeyEvent{Key: key})
	}
}
