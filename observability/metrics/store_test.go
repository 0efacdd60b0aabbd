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

import (
	"net/http"
	"sync"
	"testing"
)

// mockCollector records calls for assertions.
type mockCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

func newMockCollector() *mockCollector {
	return &mockCollector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *mockCollector) IncrementCounter(name string, labels map[string]string) {
	m.AddCounter(name, 1, labels)
}

func (m *mockCollector) AddCounter(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += value
}

func (m *mockCollector) SetGauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *mockCollector) ObserveHistogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = append(m.histograms[name], value)
}

func (m *mockCollector) ObserveSummary(name string, value float64, labels map[string]string) {}

func (m *mockCollector) Handler() http.Handler { return nil }

func TestStoreMetrics_RecordOperation(t *testing.T) {
	collector := newMockCollector()
	m := NewStoreMetrics(collector)

	m.RecordOperation("store", "sqlite", 0.005)
	m.RecordOperation("get", "sqlite", 0.001)

	if got := collector.counters[MetricStoreOpsTotal]; got != 2 {
		t.Errorf("ops total = %v, want 2", got)
	}
	if got := len(collector.histograms[MetricStoreOpDuration]); got != 2 {
		t.Errorf("duration observations = %d, want 2", got)
	}
}

func TestStoreMetrics_CacheCounters(t *testing.T) {
	collector := newMockCollector()
	m := NewStoreMetrics(collector)

	m.RecordCacheHit("l1")
	m.RecordCacheHit("l1")
	m.RecordCacheMiss("l1")
	m.RecordCacheEviction("l1")

	if got := collector.counters[MetricCacheHits]; got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := collector.counters[MetricCacheMisses]; got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := collector.counters[MetricCacheEvictions]; got != 1 {
		t.Errorf("evictions = %v, want 1", got)
	}
}

func TestStoreMetrics_IndexGauges(t *testing.T) {
	collector := newMockCollector()
	m := NewStoreMetrics(collector)

	m.SetIndexPoints(42)
	m.SetIndexMemory(1 << 20)
	m.RecordIndexSearch("cosine", 0.002)

	if got := collector.gauges[MetricIndexPoints]; got != 42 {
		t.Errorf("index points = %v, want 42", got)
	}
	if got := collector.gauges[MetricIndexMemory]; got != 1<<20 {
		t.Errorf("index memory = %v, want %v", got, 1<<20)
	}
	if got := len(collector.histograms[MetricIndexSearchDuration]); got != 1 {
		t.Errorf("search observations = %d, want 1", got)
	}
}

func TestOracleMetrics(t *testing.T) {
	collector := newMockCollector()
	m := NewOracleMetrics(collector)

	m.RecordCall("openai", "gpt-4", 1.2)
	m.RecordTimeout("openai", "gpt-4")
	m.RecordRefusal("openai", "gpt-4")
	m.RecordTokens("openai", "gpt-4", 100, 50)

	if got := collector.counters[MetricOracleCalls]; got != 1 {
		t.Errorf("oracle calls = %v, want 1", got)
	}
	if got := collector.counters[MetricOracleTimeouts]; got != 1 {
		t.Errorf("oracle timeouts = %v, want 1", got)
	}
	if got := collector.counters[MetricOracleRefusals]; got != 1 {
		t.Errorf("oracle refusals = %v, want 1", got)
	}
	if got := collector.counters[MetricTokensPrompt]; got != 100 {
		t.Errorf("prompt tokens = %v, want 100", got)
	}
	if got := collector.counters[MetricTokensOutput]; got != 50 {
		t.Errorf("output tokens = %v, want 50", got)
	}
}
