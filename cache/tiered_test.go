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
	"errors"
	"testing"
	"time"

	"github.com/sage-x-project/memkit/pkg/events"
)

func TestTieredCache_L1Hit(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	loaderCalls := 0
	loader := func(ctx context.Context, key string) (string, bool, error) {
		loaderCalls++
		return "", false, nil
	}

	tc := NewTiered(l1, loader, nil, nil)

	l1.Set("k1", "v1", 0)

	got, found, err := tc.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got != "v1" {
		t.Errorf("Get() = (%q, %v), want (v1, true)", got, found)
	}
	if loaderCalls != 0 {
		t.Errorf("loader calls = %d, want 0 on L1 hit", loaderCalls)
	}
}

func TestTieredCache_LoaderPromotion(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	loaderCalls := 0
	loader := func(ctx context.Context, key string) (string, bool, error) {
		loaderCalls++
		if key == "k1" {
			return "from-l2", true, nil
		}
		return "", false, nil
	}

	tc := NewTiered(l1, loader, nil, nil)

	got, found, err := tc.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got != "from-l2" {
		t.Errorf("Get() = (%q, %v), want (from-l2, true)", got, found)
	}

	// Promoted into L1; a second read does not consult the loader.
	if _, _, err := tc.Get(context.Background(), "k1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaderCalls != 1 {
		t.Errorf("loader calls = %d, want 1 after promotion", loaderCalls)
	}
}

func TestTieredCache_LoaderMiss(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	tc := NewTiered(l1, func(ctx context.Context, key string) (string, bool, error) {
		return "", false, nil
	}, nil, nil)

	_, found, err := tc.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() should miss when both tiers miss")
	}
}

func TestTieredCache_WriteThrough(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	written := make(map[string]string)
	writer := func(ctx context.Context, key, value string) error {
		written[key] = value
		return nil
	}

	tc := NewTiered[string](l1, nil, writer, nil)

	if err := tc.Set(context.Background(), "k1", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if written["k1"] != "v1" {
		t.Error("Set should write through to the writer")
	}
	if !l1.Has("k1") {
		t.Error("Set should populate L1")
	}
}

func TestTieredCache_WriterError(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	wantErr := errors.New("writer down")
	tc := NewTiered[string](l1, nil, func(ctx context.Context, key, value string) error {
		return wantErr
	}, nil)

	if err := tc.Set(context.Background(), "k1", "v1"); !errors.Is(err, wantErr) {
		t.Errorf("Set() error = %v, want %v", err, wantErr)
	}
}

func TestTieredCache_DeleteAffectsL1Only(t *testing.T) {
	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	l2 := map[string]string{"k1": "remote"}
	loader := func(ctx context.Context, key string) (string, bool, error) {
		v, ok := l2[key]
		return v, ok, nil
	}

	tc := NewTiered(l1, loader, nil, nil)

	l1.Set("k1", "local", 0)
	tc.Delete("k1")

	// L1 is empty but the loader still has the key.
	got, found, err := tc.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got != "remote" {
		t.Errorf("Get() = (%q, %v), want (remote, true)", got, found)
	}
}

func TestTieredCache_Events(t *testing.T) {
	bus := events.NewBus()
	bus.Start()
	defer bus.Stop()

	sub := bus.Subscribe(events.EventL1Hit, events.EventL2Hit, events.EventL2Write)
	defer bus.Unsubscribe(sub)

	l1 := New[string](Config[string]{MaxSize: 10})
	defer l1.Shutdown()

	loader := func(ctx context.Context, key string) (string, bool, error) {
		return "remote", true, nil
	}
	writer := func(ctx context.Context, key, value string) error {
		return nil
	}

	tc := NewTiered(l1, loader, writer, bus)
	ctx := context.Background()

	tc.Get(ctx, "k1")      // l2:hit (promotes)
	tc.Get(ctx, "k1")      // l1:hit
	tc.Set(ctx, "k2", "v") // l2:write

	want := map[events.EventType]bool{
		events.EventL2Hit:   false,
		events.EventL1Hit:   false,
		events.EventL2Write: false,
	}
	timeout := time.After(time.Second)
	for i := 0; i < 3; i++ {
		select {
		case ev := <-sub:
			want[ev.Type] = true
		case <-timeout:
			t.Fatal("timed out waiting for tiered cache events")
		}
	}
	for eventType, seen := range want {
		if !seen {
			t.Errorf("event %v not observed", eventType)
		}
	}
}
