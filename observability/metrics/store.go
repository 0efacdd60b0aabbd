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

package metrics

const (
	// Storage operation metrics
	MetricStoreOpsTotal    = "memkit_store_operations_total"
	MetricStoreOpDuration  = "memkit_store_operation_duration_seconds"
	MetricStoreErrorsTotal = "memkit_store_errors_total"
	MetricStoreEntries     = "memkit_store_entries"

	// Cache metrics
	MetricCacheHits      = "memkit_cache_hits_total"
	MetricCacheMisses    = "memkit_cache_misses_total"
	MetricCacheEvictions = "memkit_cache_evictions_total"
	MetricCacheSize      = "memkit_cache_entries"
	MetricCacheMemory    = "memkit_cache_memory_bytes"

	// Vector index metrics
	MetricIndexPoints         = "memkit_index_points"
	MetricIndexSearchDuration = "memkit_index_search_duration_seconds"
	MetricIndexMemory         = "memkit_index_memory_bytes"

	// Session metrics
	MetricSessionsStarted = "memkit_sessions_started_total"
	MetricSessionsEnded   = "memkit_sessions_ended_total"
	MetricObservations    = "memkit_observations_total"
)

// StoreMetrics provides metrics for the storage engine, cache, and
// vector index.
type StoreMetrics struct {
	collector Collector
}

// NewStoreMetrics creates a new store metrics recorder.
func NewStoreMetrics(collector Collector) *StoreMetrics {
	return &StoreMetrics{
		collector: collector,
	}
}

// RecordOperation records a storage operation with duration in seconds.
func (m *StoreMetrics) RecordOperation(op, backend string, duration float64) {
	labels := NewLabels("operation", op, "backend", backend)
	m.collector.IncrementCounter(MetricStoreOpsTotal, labels)
	m.collector.ObserveHistogram(MetricStoreOpDuration, duration, labels)
}

// RecordError records a failed storage operation.
func (m *StoreMetrics) RecordError(op, backend, errorCode string) {
	labels := NewLabels("operation", op, "backend", backend, "code", errorCode)
	m.collector.IncrementCounter(MetricStoreErrorsTotal, labels)
}

// SetEntryCount sets the number of persisted entries in a namespace.
func (m *StoreMetrics) SetEntryCount(namespace string, count float64) {
	m.collector.SetGauge(MetricStoreEntries, count, NewLabels("namespace", namespace))
}

// RecordCacheHit records a cache hit.
func (m *StoreMetrics) RecordCacheHit(tier string) {
	m.collector.IncrementCounter(MetricCacheHits, NewLabels("tier", tier))
}

// RecordCacheMiss records a cache miss.
func (m *StoreMetrics) RecordCacheMiss(tier string) {
	m.collector.IncrementCounter(MetricCacheMisses, NewLabels("tier", tier))
}

// RecordCacheEviction records a cache eviction.
func (m *StoreMetrics) RecordCacheEviction(tier string) {
	m.collector.IncrementCounter(MetricCacheEvictions, NewLabels("tier", tier))
}

// SetCacheSize sets the current cache entry count and memory usage.
func (m *StoreMetrics) SetCacheSize(tier string, entries, memoryBytes float64) {
	labels := NewLabels("tier", tier)
	m.collector.SetGauge(MetricCacheSize, entries, labels)
	m.collector.SetGauge(MetricCacheMemory, memoryBytes, labels)
}

// SetIndexPoints sets the number of points held by the vector index.
func (m *StoreMetrics) SetIndexPoints(count float64) {
	m.collector.SetGauge(MetricIndexPoints, count, NoLabels())
}

// RecordIndexSearch records a vector search with duration in seconds.
func (m *StoreMetrics) RecordIndexSearch(metric string, duration float64) {
	m.collector.ObserveHistogram(MetricIndexSearchDuration, duration, NewLabels("metric", metric))
}

// SetIndexMemory sets the index memory usage in bytes.
func (m *StoreMetrics) SetIndexMemory(bytes float64) {
	m.collector.SetGauge(MetricIndexMemory, bytes, NoLabels())
}

// RecordSessionStarted records a started session.
func (m *StoreMetrics) RecordSessionStarted(project string) {
	m.collector.IncrementCounter(MetricSessionsStarted, NewLabels("project", project))
}

// RecordSessionEnded records an ended session.
func (m *StoreMetrics) RecordSessionEnded(project, status string) {
	m.collector.IncrementCounter(MetricSessionsEnded, NewLabels("project", project, "status", status))
}

// RecordObservation records a captured observation.
func (m *StoreMetrics) RecordObservation(project, obsType string) {
	m.collector.IncrementCounter(MetricObservations, NewLabels("project", project, "type", obsType))
}
