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

package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/sage-x-project/memkit/pkg/errors"
)

func newTestIndex(t *testing.T, config Config) *Index {
	t.Helper()
	if config.Dimensions == 0 {
		config.Dimensions = 8
	}
	if config.Seed == 0 {
		config.Seed = 42
	}
	idx, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return idx
}

func unitVector(dims, axis int) []float32 {
	v := make([]float32, dims)
	v[axis] = 1
	return v
}

func TestIndex_AddAndSearchIdentity(t *testing.T) {
	idx := newTestIndex(t, Config{Metric: MetricCosine})

	v := []float32{0.3, 0.1, 0.9, 0.2, 0.5, 0.7, 0.4, 0.6}
	if err := idx.AddPoint("mem-1", v); err != nil {
		t.Fatalf("AddPoint() error = %v", err)
	}

	results, err := idx.Search(v, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].ID != "mem-1" {
		t.Errorf("ID = %q, want mem-1", results[0].ID)
	}
	if results[0].Distance > 1e-9 {
		t.Errorf("identity distance = %v, want ~0", results[0].Distance)
	}
}

func TestIndex_CosineOrdering(t *testing.T) {
	// Spec scenario: v1=[1,0,...], v2=[0,1,...], d=8, cosine.
	idx := newTestIndex(t, Config{Metric: MetricCosine})

	v1 := unitVector(8, 0)
	v2 := unitVector(8, 1)

	if err := idx.AddPoint("v1", v1); err != nil {
		t.Fatal(err)
	}
	if err := idx.AddPoint("v2", v2); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(v1, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "v1" || results[1].ID != "v2" {
		t.Errorf("order = [%s, %s], want [v1, v2]", results[0].ID, results[1].ID)
	}
	if results[0].Distance > 1e-9 {
		t.Errorf("d(v1,v1) = %v, want ~0", results[0].Distance)
	}
	if math.Abs(results[1].Distance-1.0) > 1e-9 {
		t.Errorf("d(v1,v2) = %v, want ~1", results[1].Distance)
	}
}

func TestIndex_SearchEmpty(t *testing.T) {
	idx := newTestIndex(t, Config{})

	results, err := idx.Search(unitVector(8, 0), 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty index returned %d results", len(results))
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(t, Config{})

	if err := idx.AddPoint("bad", []float32{1, 2}); !errors.Is(err, errors.ErrDimensionMismatch) {
		t.Errorf("AddPoint() error = %v, want ErrDimensionMismatch", err)
	}

	idx.AddPoint("ok", unitVector(8, 0))
	if _, err := idx.Search([]float32{1, 2}, 1); !errors.Is(err, errors.ErrDimensionMismatch) {
		t.Errorf("Search() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestIndex_Full(t *testing.T) {
	idx := newTestIndex(t, Config{MaxElements: 2})

	if err := idx.AddPoint("a", unitVector(8, 0)); err != nil {
		t.Fatal(err)
	}
	if err := idx.AddPoint("b", unitVector(8, 1)); err != nil {
		t.Fatal(err)
	}
	if err := idx.AddPoint("c", unitVector(8, 2)); !errors.Is(err, errors.ErrIndexFull) {
		t.Errorf("AddPoint() error = %v, want ErrIndexFull", err)
	}

	// Replacing an existing id is not an insertion.
	if err := idx.AddPoint("a", unitVector(8, 3)); err != nil {
		t.Errorf("replacing existing id should succeed, got %v", err)
	}
}

func TestIndex_SearchOrderingMany(t *testing.T) {
	idx := newTestIndex(t, Config{Dimensions: 16, Metric: MetricEuclidean})

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		v := make([]float32, 16)
		for j := range v {
			v[j] = rng.Float32()
		}
		if err := idx.AddPoint(fmt.Sprintf("p%d", i), v); err != nil {
			t.Fatal(err)
		}
	}

	query := make([]float32, 16)
	for j := range query {
		query[j] = rng.Float32()
	}

	results, err := idx.Search(query, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("len(results) = %d, want 10", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not non-decreasing at %d: %v < %v", i, results[i].Distance, results[i-1].Distance)
		}
	}
}

func TestIndex_NeverMoreThanSize(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("a", unitVector(8, 0))
	idx.AddPoint("b", unitVector(8, 1))

	results, err := idx.Search(unitVector(8, 0), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 2 {
		t.Errorf("len(results) = %d, want <= size 2", len(results))
	}
}

func TestIndex_SearchWithFilters(t *testing.T) {
	idx := newTestIndex(t, Config{Dimensions: 4, Metric: MetricEuclidean})

	idx.AddPoint("keep-1", []float32{1, 0, 0, 0})
	idx.AddPoint("drop-1", []float32{1, 0.01, 0, 0})
	idx.AddPoint("keep-2", []float32{0, 1, 0, 0})

	results, err := idx.SearchWithFilters([]float32{1, 0, 0, 0}, 3, func(id string) bool {
		return id[:4] == "keep"
	})
	if err != nil {
		t.Fatalf("SearchWithFilters() error = %v", err)
	}

	for _, r := range results {
		if r.ID[:4] != "keep" {
			t.Errorf("filtered result %q should satisfy the predicate", r.ID)
		}
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "keep-1" {
		t.Errorf("first = %q, want keep-1", results[0].ID)
	}
}

func TestIndex_RemovePoint(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("a", unitVector(8, 0))
	idx.AddPoint("b", unitVector(8, 1))

	if !idx.RemovePoint("a") {
		t.Error("RemovePoint(a) should report removal")
	}
	if idx.RemovePoint("a") {
		t.Error("double RemovePoint should report false")
	}
	if idx.RemovePoint("missing") {
		t.Error("RemovePoint(missing) should report false")
	}
	if idx.Size() != 1 {
		t.Errorf("Size() = %d, want 1", idx.Size())
	}

	// Tombstoned nodes never surface in results.
	results, err := idx.Search(unitVector(8, 0), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == "a" {
			t.Error("tombstoned point returned from search")
		}
	}
}

func TestIndex_RemoveEntryPointElectsNew(t *testing.T) {
	idx := newTestIndex(t, Config{})

	for i := 0; i < 20; i++ {
		idx.AddPoint(fmt.Sprintf("p%d", i), unitVector(8, i%8))
	}

	// Remove whatever is the entry point by removing everything except
	// one and searching after each removal.
	for i := 0; i < 19; i++ {
		if !idx.RemovePoint(fmt.Sprintf("p%d", i)) {
			t.Fatalf("RemovePoint(p%d) failed", i)
		}
		if _, err := idx.Search(unitVector(8, 0), 1); err != nil {
			t.Fatalf("Search after removal %d: %v", i, err)
		}
	}

	results, err := idx.Search(unitVector(8, 3), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "p19" {
		t.Errorf("results = %v, want the single survivor p19", results)
	}
}

func TestIndex_ReAddTombstoned(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("a", unitVector(8, 0))
	idx.RemovePoint("a")

	if err := idx.AddPoint("a", unitVector(8, 1)); err != nil {
		t.Fatalf("re-adding tombstoned id: %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size() = %d, want 1", idx.Size())
	}

	results, _ := idx.Search(unitVector(8, 1), 1)
	if len(results) != 1 || results[0].ID != "a" {
		t.Errorf("results = %v, want revived a", results)
	}
}

func TestIndex_Rebuild(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("old", unitVector(8, 0))

	points := []Point{
		{ID: "n1", Vector: unitVector(8, 1)},
		{ID: "n2", Vector: unitVector(8, 2)},
	}
	if err := idx.Rebuild(points); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if idx.Size() != 2 {
		t.Errorf("Size() = %d, want 2", idx.Size())
	}
	results, _ := idx.Search(unitVector(8, 0), 3)
	for _, r := range results {
		if r.ID == "old" {
			t.Error("rebuilt index should not contain pre-rebuild points")
		}
	}
}

func TestIndex_Clear(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("a", unitVector(8, 0))
	idx.Search(unitVector(8, 0), 1)
	idx.Clear()

	if idx.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", idx.Size())
	}
	stats := idx.GetStats()
	if stats.VectorCount != 0 || stats.DistanceComputations != 0 {
		t.Errorf("stats not reset: %+v", stats)
	}
}

func TestIndex_Stats(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.AddPoint("a", unitVector(8, 0))
	idx.AddPoint("b", unitVector(8, 1))
	idx.Search(unitVector(8, 0), 1)

	stats := idx.GetStats()
	if stats.VectorCount != 2 {
		t.Errorf("VectorCount = %d, want 2", stats.VectorCount)
	}
	if stats.MemoryUsage == 0 {
		t.Error("MemoryUsage should be positive")
	}
	if stats.CompressionRatio != 1 {
		t.Errorf("CompressionRatio = %v, want 1 without quantization", stats.CompressionRatio)
	}
	if stats.EfSearch != DefaultEfSearch {
		t.Errorf("EfSearch = %d, want %d", stats.EfSearch, DefaultEfSearch)
	}
	if stats.DistanceComputations == 0 {
		t.Error("DistanceComputations should be positive after a search")
	}
}

func TestIndex_SetEf(t *testing.T) {
	idx := newTestIndex(t, Config{})

	idx.SetEf(128)
	if got := idx.GetStats().EfSearch; got != 128 {
		t.Errorf("EfSearch = %d, want 128", got)
	}

	idx.SetEf(0) // ignored
	if got := idx.GetStats().EfSearch; got != 128 {
		t.Errorf("EfSearch = %d after SetEf(0), want 128", got)
	}
}

func TestIndex_ConcurrentSearchInsert(t *testing.T) {
	idx := newTestIndex(t, Config{Dimensions: 8, MaxElements: 10000})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			idx.AddPoint(fmt.Sprintf("p%d", i), unitVector(8, i%8))
		}
	}()

	for i := 0; i < 200; i++ {
		if _, err := idx.Search(unitVector(8, i%8), 3); err != nil {
			t.Fatalf("concurrent Search() error = %v", err)
		}
	}
	<-done
}

func BenchmarkIndex_Search(b *testing.B) {
	idx, _ := New(Config{Dimensions: 64, Seed: 1})
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := make([]float32, 64)
		for j := range v {
			v[j] = rng.Float32()
		}
		idx.AddPoint(fmt.Sprintf("p%d", i), v)
	}

	query := make([]float32, 64)
	for j := range query {
		query[j] = rng.Float32()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Search(query, 10)
	}
}
