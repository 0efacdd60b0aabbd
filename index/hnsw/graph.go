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
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
)

// Result is one search hit, ordered by ascending distance.
type Result struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Point is one (id, vector) pair for Rebuild.
type Point struct {
	ID     string
	Vector []float32
}

// Stats summarizes the index state.
type Stats struct {
	VectorCount          int     `json:"vectorCount"`
	MemoryUsage          int64   `json:"memoryUsage"`
	AvgSearchTime        float64 `json:"avgSearchTime"` // milliseconds
	CompressionRatio     float64 `json:"compressionRatio"`
	EfSearch             int     `json:"efSearch"`
	DistanceComputations int64   `json:"distanceComputations"`
	MaxLevel             int     `json:"maxLevel"`
}

// PointEvent is the payload for point:added and point:removed.
type PointEvent struct {
	ID string
}

// RebuiltEvent is the payload for index:rebuilt.
type RebuiltEvent struct {
	Count    int
	Duration time.Duration
}

// node is one graph vertex. neighbors holds one id slice per layer;
// slices are replaced wholesale on mutation (copy-on-write) so readers
// holding a reference see a consistent list.
type node struct {
	id        string
	vector    []float32 // raw vector, nil under quantization
	code      []byte    // quantized code, nil without quantization
	level     int
	neighbors [][]string
	deleted   bool
}

// Index is an HNSW approximate nearest-neighbor index.
type Index struct {
	mu       sync.RWMutex
	config   Config
	distance distanceFunc
	quant    quantizer

	nodes      map[string]*node
	entryPoint string
	maxLevel   int
	liveCount  int

	levelMult float64
	rng       *rand.Rand

	efSearch int

	// search statistics, atomic so searches stay on the read lock
	searchCount atomic.Int64
	searchNanos atomic.Int64
	distComps   atomic.Int64
}

// New creates a new index from the configuration.
func New(config Config) (*Index, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Index{
		config:    config,
		distance:  distanceFor(config.Metric),
		quant:     quantizerFor(config),
		nodes:     make(map[string]*node),
		levelMult: 1.0 / math.Log(float64(config.M)),
		rng:       rand.New(rand.NewSource(seed)),
		efSearch:  config.EfSearch,
	}, nil
}

// Size returns the number of live points.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.liveCount
}

// Dimensions returns the configured vector dimension.
func (idx *Index) Dimensions() int {
	return idx.config.Dimensions
}

// Metric returns the configured distance metric.
func (idx *Index) Metric() Metric {
	return idx.config.Metric
}

// SetEf adjusts the runtime search breadth.
func (idx *Index) SetEf(ef int) {
	if ef < 1 {
		return
	}
	idx.mu.Lock()
	idx.efSearch = ef
	idx.mu.Unlock()
}

// AddPoint inserts a vector under the given id. A dimension mismatch
// or a full index is rejected. Re-adding an existing id replaces its
// vector in place, keeping the node's graph position.
func (idx *Index) AddPoint(id string, vector []float32) error {
	if len(vector) != idx.config.Dimensions {
		return errors.ErrDimensionMismatch.
			WithDetail("expected", idx.config.Dimensions).
			WithDetail("actual", len(vector))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.nodes[id]; ok {
		wasDeleted := existing.deleted
		idx.storeVector(existing, vector)
		existing.deleted = false
		if wasDeleted {
			idx.liveCount++
			// A revived node may be the only live node, or sit above
			// the elected entry point.
			if idx.entryPoint == "" || existing.level > idx.maxLevel {
				idx.entryPoint = id
				idx.maxLevel = existing.level
			}
		}
		idx.publish(events.EventPointAdded, PointEvent{ID: id})
		return nil
	}

	if idx.liveCount >= idx.config.MaxElements {
		return errors.ErrIndexFull.WithDetail("maxElements", idx.config.MaxElements)
	}

	level := idx.randomLevel()
	n := &node{
		id:        id,
		level:     level,
		neighbors: make([][]string, level+1),
	}
	idx.storeVector(n, vector)
	idx.nodes[id] = n
	idx.liveCount++

	if idx.entryPoint == "" {
		idx.entryPoint = id
		idx.maxLevel = level
		idx.publish(events.EventPointAdded, PointEvent{ID: id})
		return nil
	}

	query := vector
	ep := idx.entryPoint

	// Greedily descend through the layers above the new node's level.
	for layer := idx.maxLevel; layer > level; layer-- {
		ep = idx.greedyClosest(query, ep, layer)
	}

	// Connect on each layer from min(level, maxLevel) down to 0.
	eps := []string{ep}
	topLayer := level
	if topLayer > idx.maxLevel {
		topLayer = idx.maxLevel
	}
	for layer := topLayer; layer >= 0; layer-- {
		candidates := idx.searchLayer(query, eps, idx.config.EfConstruction, layer)
		selected := idx.selectNeighbors(query, candidates, idx.config.M)

		n.neighbors[layer] = selected

		for _, neighborID := range selected {
			neighbor := idx.nodes[neighborID]
			if neighbor == nil || layer > neighbor.level {
				continue
			}
			updated := append(append([]string(nil), neighbor.neighbors[layer]...), id)
			if len(updated) > idx.config.M {
				updated = idx.pruneNeighbors(neighbor, updated, layer)
			}
			neighbor.neighbors[layer] = updated
		}

		eps = candidates
	}

	if level > idx.maxLevel {
		idx.maxLevel = level
		idx.entryPoint = id
	}

	idx.publish(events.EventPointAdded, PointEvent{ID: id})
	return nil
}

// storeVector stores the raw or quantized representation on the node.
func (idx *Index) storeVector(n *node, vector []float32) {
	if idx.quant != nil {
		n.code = idx.quant.Encode(vector)
		n.vector = nil
		return
	}
	n.vector = append([]float32(nil), vector...)
}

// nodeVector returns the (possibly reconstructed) vector of a node.
func (idx *Index) nodeVector(n *node) []float32 {
	if n.vector != nil {
		return n.vector
	}
	return idx.quant.Decode(n.code)
}

func (idx *Index) dist(query []float32, n *node) float64 {
	idx.distComps.Add(1)
	return idx.distance(query, idx.nodeVector(n))
}

// randomLevel draws the node's top layer from a geometric distribution
// with parameter 1/ln(M).
func (idx *Index) randomLevel() int {
	u := 1.0 - idx.rng.Float64() // (0, 1]
	return int(-math.Log(u) * idx.levelMult)
}

// greedyClosest descends greedily within one layer and returns the
// closest reachable node id.
func (idx *Index) greedyClosest(query []float32, entryID string, layer int) string {
	current := entryID
	currentDist := idx.dist(query, idx.nodes[current])

	for {
		improved := false
		n := idx.nodes[current]
		if layer <= n.level {
			for _, neighborID := range n.neighbors[layer] {
				neighbor := idx.nodes[neighborID]
				if neighbor == nil {
					continue
				}
				if d := idx.dist(query, neighbor); d < currentDist {
					current = neighborID
					currentDist = d
					improved = true
				}
			}
		}
		if !improved {
			return current
		}
	}
}

// searchLayer runs an ef-bounded best-first search within one layer
// and returns up to ef candidate ids ordered by ascending distance.
// Tombstoned nodes are traversed for connectivity but excluded from
// the result set.
func (idx *Index) searchLayer(query []float32, entryPoints []string, ef, layer int) []string {
	visited := make(map[string]bool, ef*2)
	candidates := &minHeap{}
	results := &maxHeap{}

	for _, id := range entryPoints {
		n := idx.nodes[id]
		if n == nil || visited[id] {
			continue
		}
		visited[id] = true
		d := idx.dist(query, n)
		heap.Push(candidates, heapItem{id: id, distance: d})
		if !n.deleted {
			heap.Push(results, heapItem{id: id, distance: d})
		}
	}

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(heapItem)
		if results.Len() >= ef && closest.distance > (*results)[0].distance {
			break
		}

		n := idx.nodes[closest.id]
		if layer > n.level {
			continue
		}
		for _, neighborID := range n.neighbors[layer] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true
			neighbor := idx.nodes[neighborID]
			if neighbor == nil {
				continue
			}

			d := idx.dist(query, neighbor)
			if results.Len() < ef || d < (*results)[0].distance {
				heap.Push(candidates, heapItem{id: neighborID, distance: d})
				if !neighbor.deleted {
					heap.Push(results, heapItem{id: neighborID, distance: d})
					if results.Len() > ef {
						heap.Pop(results)
					}
				}
			}
		}
	}

	out := make([]string, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(heapItem).id
	}
	return out
}

// selectNeighbors applies the diversity-aware heuristic: a candidate
// is kept only when it is closer to the query than to every already
// selected neighbor. Pruned candidates backfill remaining slots.
func (idx *Index) selectNeighbors(query []float32, candidates []string, m int) []string {
	if len(candidates) <= m {
		return append([]string(nil), candidates...)
	}

	selected := make([]string, 0, m)
	pruned := make([]string, 0, len(candidates))

	for _, candidateID := range candidates {
		if len(selected) >= m {
			break
		}
		candidate := idx.nodes[candidateID]
		candidateDist := idx.dist(query, candidate)

		diverse := true
		for _, selectedID := range selected {
			if idx.dist(idx.nodeVector(candidate), idx.nodes[selectedID]) < candidateDist {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, candidateID)
		} else {
			pruned = append(pruned, candidateID)
		}
	}

	for _, candidateID := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, candidateID)
	}
	return selected
}

// pruneNeighbors re-runs the selection heuristic for a node whose
// degree exceeded the budget.
func (idx *Index) pruneNeighbors(n *node, neighborIDs []string, layer int) []string {
	vec := idx.nodeVector(n)

	sorted := append([]string(nil), neighborIDs...)
	sort.Slice(sorted, func(i, j int) bool {
		return idx.dist(vec, idx.nodes[sorted[i]]) < idx.dist(vec, idx.nodes[sorted[j]])
	})

	return idx.selectNeighbors(vec, sorted, idx.config.M)
}

// Search returns the k nearest neighbors of the query, ordered by
// ascending distance. The optional ef overrides the runtime search
// breadth. An empty index yields an empty result.
func (idx *Index) Search(query []float32, k int, ef ...int) ([]Result, error) {
	return idx.SearchWithFilters(query, k, nil, ef...)
}

// SearchWithFilters returns the k nearest neighbors whose id satisfies
// the predicate. The post-filter may shrink the result below k.
func (idx *Index) SearchWithFilters(query []float32, k int, filter func(id string) bool, ef ...int) ([]Result, error) {
	if len(query) != idx.config.Dimensions {
		return nil, errors.ErrDimensionMismatch.
			WithDetail("expected", idx.config.Dimensions).
			WithDetail("actual", len(query))
	}
	if k < 1 {
		return []Result{}, nil
	}

	start := time.Now()

	idx.mu.RLock()
	defer func() {
		idx.searchCount.Add(1)
		idx.searchNanos.Add(int64(time.Since(start)))
		idx.mu.RUnlock()
	}()

	if idx.liveCount == 0 || idx.entryPoint == "" {
		return []Result{}, nil
	}

	breadth := idx.efSearch
	if len(ef) > 0 && ef[0] > 0 {
		breadth = ef[0]
	}
	if breadth < k {
		breadth = k
	}

	ep := idx.entryPoint
	for layer := idx.maxLevel; layer > 0; layer-- {
		ep = idx.greedyClosest(query, ep, layer)
	}

	candidates := idx.searchLayer(query, []string{ep}, breadth, 0)

	results := make([]Result, 0, k)
	for _, id := range candidates {
		if filter != nil && !filter(id) {
			continue
		}
		results = append(results, Result{
			ID:       id,
			Distance: idx.dist(query, idx.nodes[id]),
		})
		if len(results) >= k {
			break
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// RemovePoint tombstones a node. Tombstoned nodes are skipped in
// searches but remain as graph waypoints. Returns whether a live node
// was removed.
func (idx *Index) RemovePoint(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n, ok := idx.nodes[id]
	if !ok || n.deleted {
		return false
	}

	n.deleted = true
	idx.liveCount--

	if idx.entryPoint == id {
		idx.electEntryPoint()
	}

	idx.publish(events.EventPointRemoved, PointEvent{ID: id})
	return true
}

// electEntryPoint installs the highest-layer live node as the entry
// point. Caller holds the write lock.
func (idx *Index) electEntryPoint() {
	idx.entryPoint = ""
	idx.maxLevel = 0

	for id, n := range idx.nodes {
		if n.deleted {
			continue
		}
		if idx.entryPoint == "" || n.level > idx.maxLevel {
			idx.entryPoint = id
			idx.maxLevel = n.level
		}
	}
}

// Rebuild clears the index and re-inserts the given points.
func (idx *Index) Rebuild(points []Point) error {
	start := time.Now()

	idx.Clear()
	for _, p := range points {
		if err := idx.AddPoint(p.ID, p.Vector); err != nil {
			return err
		}
	}

	idx.publish(events.EventIndexRebuilt, RebuiltEvent{
		Count:    len(points),
		Duration: time.Since(start),
	})
	return nil
}

// Clear drops all state and resets statistics.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.nodes = make(map[string]*node)
	idx.entryPoint = ""
	idx.maxLevel = 0
	idx.liveCount = 0
	idx.searchCount.Store(0)
	idx.searchNanos.Store(0)
	idx.distComps.Store(0)
}

// GetStats returns a snapshot of index statistics.
func (idx *Index) GetStats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := Stats{
		VectorCount:          idx.liveCount,
		EfSearch:             idx.efSearch,
		DistanceComputations: idx.distComps.Load(),
		MaxLevel:             idx.maxLevel,
		CompressionRatio:     1,
	}
	if idx.quant != nil {
		stats.CompressionRatio = idx.quant.Ratio()
	}
	if count := idx.searchCount.Load(); count > 0 {
		stats.AvgSearchTime = float64(idx.searchNanos.Load()) / float64(count) / float64(time.Millisecond)
	}

	for id, n := range idx.nodes {
		stats.MemoryUsage += int64(len(id))
		stats.MemoryUsage += int64(len(n.vector) * 4)
		stats.MemoryUsage += int64(len(n.code))
		for _, layer := range n.neighbors {
			for _, neighborID := range layer {
				stats.MemoryUsage += int64(len(neighborID))
			}
		}
	}
	return stats
}

func (idx *Index) publish(eventType events.EventType, payload interface{}) {
	if idx.config.Bus != nil {
		idx.config.Bus.Publish(eventType, payload)
	}
}

// heapItem is one (id, distance) pair in the search heaps.
type heapItem struct {
	id       string
	distance float64
}

// minHeap pops the closest candidate first.
type minHeap []heapItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].distance < h[j].distance }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap keeps the worst result on top for cheap replacement.
type maxHeap []heapItem

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].distance > h[j].distance }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
