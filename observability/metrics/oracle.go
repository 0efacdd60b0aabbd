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
	// Enrichment oracle and embedding provider metrics
	MetricOracleCalls    = "memkit_oracle_calls_total"
	MetricOracleErrors   = "memkit_oracle_errors_total"
	MetricOracleLatency  = "memkit_oracle_latency_seconds"
	MetricOracleTimeouts = "memkit_oracle_timeouts_total"
	MetricOracleRefusals = "memkit_oracle_refusals_total"
	MetricEmbedCalls     = "memkit_embedding_calls_total"
	MetricEmbedLatency   = "memkit_embedding_latency_seconds"
	MetricTokensPrompt   = "memkit_llm_tokens_prompt_total"
	MetricTokensOutput   = "memkit_llm_tokens_output_total"
)

// OracleMetrics provides metrics for the enrichment oracle and the
// embedding provider.
type OracleMetrics struct {
	collector Collector
}

// NewOracleMetrics creates a new oracle metrics recorder.
func NewOracleMetrics(collector Collector) *OracleMetrics {
	return &OracleMetrics{
		collector: collector,
	}
}

// RecordCall records an oracle call with latency in seconds.
func (m *OracleMetrics) RecordCall(provider, model string, latency float64) {
	labels := NewLabels("provider", provider, "model", model)
	m.collector.IncrementCounter(MetricOracleCalls, labels)
	m.collector.ObserveHistogram(MetricOracleLatency, latency, labels)
}

// RecordError records an oracle error.
func (m *OracleMetrics) RecordError(provider, model, errorType string) {
	labels := NewLabels("provider", provider, "model", model, "type", errorType)
	m.collector.IncrementCounter(MetricOracleErrors, labels)
}

// RecordTimeout records an oracle timeout; the pipeline fell back to
// deterministic templates.
func (m *OracleMetrics) RecordTimeout(provider, model string) {
	m.collector.IncrementCounter(MetricOracleTimeouts, NewLabels("provider", provider, "model", model))
}

// RecordRefusal records an oracle refusal.
func (m *OracleMetrics) RecordRefusal(provider, model string) {
	m.collector.IncrementCounter(MetricOracleRefusals, NewLabels("provider", provider, "model", model))
}

// RecordEmbedding records an embedding call with latency in seconds.
func (m *OracleMetrics) RecordEmbedding(provider, model string, latency float64) {
	labels := NewLabels("provider", provider, "model", model)
	m.collector.IncrementCounter(MetricEmbedCalls, labels)
	m.collector.ObserveHistogram(MetricEmbedLatency, latency, labels)
}

// RecordTokens records token usage for an oracle call.
func (m *OracleMetrics) RecordTokens(provider, model string, promptTokens, outputTokens int) {
	labels := NewLabels("provider", provider, "model", model)
	m.collector.AddCounter(MetricTokensPrompt, float64(promptTokens), labels)
	m.collector.AddCounter(MetricTokensOutput, float64(outputTokens), labels)
}
