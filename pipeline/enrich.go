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

package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sage-x-project/memkit/adapters/llm"
	"github.com/sage-x-project/memkit/observability/metrics"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/ratelimit"
	"github.com/sage-x-project/memkit/resilience"
)

// Enrichment caps.
const (
	MaxFacts      = 5
	MaxFactLen    = 200
	MaxConcepts   = 5
	MaxConceptLen = 50
	oracleRateKey = "oracle"
)

// DefaultOracleTimeout bounds one enrichment oracle call.
const DefaultOracleTimeout = 15 * time.Second

// Enrichment is the oracle's answer for one observation.
type Enrichment struct {
	Subtitle  string   `json:"subtitle"`
	Narrative string   `json:"narrative"`
	Facts     []string `json:"facts"`
	Concepts  []string `json:"concepts"`
}

// EnrichmentOracle is the optional collaborator that synthesizes
// subtitle, narrative, facts, and concepts for an observation. An
// oracle may refuse by returning (nil, nil); refusals, errors, and
// timeouts all fall back to the deterministic templates.
type EnrichmentOracle interface {
	Enrich(ctx context.Context, toolName, toolInput, toolResponse string) (*Enrichment, error)
}

// LLMOracle answers enrichment requests through an LLM provider,
// bounded by a timeout, one retry, a token-bucket rate limit, a
// concurrency bulkhead, and a circuit breaker that opens after
// consecutive provider failures.
type LLMOracle struct {
	provider llm.Provider
	timeout  time.Duration
	limiter  ratelimit.Limiter
	bulkhead *resilience.Bulkhead
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.OracleMetrics
	model    string
}

// LLMOracleConfig configures the LLM-backed oracle.
type LLMOracleConfig struct {
	// Provider answers the completion requests. Required.
	Provider llm.Provider

	// Model overrides the provider default model.
	Model string

	// Timeout bounds one oracle call. Default 15 seconds.
	Timeout time.Duration

	// Rate caps oracle calls per second. 0 disables the limit.
	Rate float64

	// MaxConcurrent bounds in-flight oracle calls. Default 4.
	MaxConcurrent int

	// BreakerThreshold is the consecutive failure count that opens the
	// circuit. Default 5.
	BreakerThreshold int

	// BreakerCooldown is how long the circuit stays open before a
	// half-open probe. Default 60 seconds.
	BreakerCooldown time.Duration

	// Metrics records oracle activity. Optional.
	Metrics *metrics.OracleMetrics
}

// NewLLMOracle creates an LLM-backed enrichment oracle.
func NewLLMOracle(config LLMOracleConfig) *LLMOracle {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultOracleTimeout
	}
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = 4
	}

	breakerThreshold := config.BreakerThreshold
	if breakerThreshold == 0 {
		breakerThreshold = 5
	}
	breakerCooldown := config.BreakerCooldown
	if breakerCooldown == 0 {
		breakerCooldown = 60 * time.Second
	}

	var limiter ratelimit.Limiter
	if config.Rate > 0 {
		limiter = ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
			Rate:     config.Rate,
			Capacity: int(config.Rate) + 1,
		})
	}

	return &LLMOracle{
		provider: config.Provider,
		timeout:  timeout,
		limiter:  limiter,
		bulkhead: resilience.NewBulkhead(&resilience.BulkheadConfig{
			MaxConcurrent: maxConcurrent,
			Timeout:       timeout,
		}),
		breaker: resilience.NewCircuitBreaker(&resilience.CircuitBreakerConfig{
			MaxFailures:         breakerThreshold,
			Timeout:             breakerCooldown,
			MaxHalfOpenRequests: 1,
		}),
		metrics: config.Metrics,
		model:   config.Model,
	}
}

const enrichmentSystemPrompt = `You annotate coding-assistant tool invocations.
Given a tool name, its input, and its response, answer with a single JSON object:
{"subtitle": "...", "narrative": "...", "facts": ["..."], "concepts": ["..."]}
subtitle: one short line. narrative: one or two sentences.
facts: at most 5 short factual statements. concepts: at most 5 short labels.
Answer with the JSON object only.`

// Enrich asks the provider to annotate an observation. Every failure
// mode surfaces as an error or a nil enrichment; the pipeline falls
// back to templates in both cases.
func (o *LLMOracle) Enrich(ctx context.Context, toolName, toolInput, toolResponse string) (*Enrichment, error) {
	if o.provider == nil {
		return nil, errors.ErrProviderNotSet
	}

	if o.limiter != nil && !o.limiter.Allow(oracleRateKey) {
		return nil, errors.ErrOracleRefused.WithMessage("rate limited")
	}

	var enrichment *Enrichment
	start := time.Now()

	err := o.bulkhead.Execute(ctx, func(ctx context.Context) error {
		return o.breaker.Execute(ctx, func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, &resilience.TimeoutConfig{Duration: o.timeout},
				func(ctx context.Context) error {
					return resilience.Retry(ctx, &resilience.RetryConfig{
						MaxAttempts: 2,
						Backoff:     resilience.ConstantBackoff(200 * time.Millisecond),
						ShouldRetry: resilience.DefaultShouldRetry,
					}, func(ctx context.Context) error {
						result, err := o.complete(ctx, toolName, toolInput, toolResponse)
						if err != nil {
							return err
						}
						enrichment = result
						return nil
					})
				})
		})
	})

	if o.metrics != nil {
		latency := time.Since(start).Seconds()
		switch {
		case err == nil:
			o.metrics.RecordCall(o.provider.Name(), o.model, latency)
		case errors.Is(err, resilience.ErrTimeout):
			o.metrics.RecordTimeout(o.provider.Name(), o.model)
		case errors.Is(err, resilience.ErrCircuitBreakerOpen):
			o.metrics.RecordError(o.provider.Name(), o.model, "circuit_open")
		default:
			o.metrics.RecordError(o.provider.Name(), o.model, "call")
		}
	}

	if err != nil {
		if errors.Is(err, resilience.ErrTimeout) {
			return nil, errors.ErrOracleTimeout.Wrap(err)
		}
		if errors.Is(err, resilience.ErrCircuitBreakerOpen) {
			return nil, errors.ErrOracleRefused.WithMessage("circuit open").Wrap(err)
		}
		return nil, err
	}
	return enrichment, nil
}

func (o *LLMOracle) complete(ctx context.Context, toolName, toolInput, toolResponse string) (*Enrichment, error) {
	var sb strings.Builder
	sb.WriteString("Tool: ")
	sb.WriteString(toolName)
	sb.WriteString("\nInput: ")
	sb.WriteString(truncateText(toolInput, 2000))
	sb.WriteString("\nResponse: ")
	sb.WriteString(truncateText(toolResponse, 2000))

	resp, err := o.provider.Complete(ctx, &llm.CompletionRequest{
		Model: o.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: enrichmentSystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	if o.metrics != nil && resp.Usage != nil {
		o.metrics.RecordTokens(o.provider.Name(), o.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	enrichment, err := parseEnrichment(resp.Content)
	if err != nil {
		return nil, err
	}
	return clampEnrichment(enrichment), nil
}

// parseEnrichment extracts the JSON object from a completion, which
// may be wrapped in prose or code fences.
func parseEnrichment(content string) (*Enrichment, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errors.ErrParse.WithMessage("no JSON object in oracle answer")
	}

	var enrichment Enrichment
	if err := json.Unmarshal([]byte(content[start:end+1]), &enrichment); err != nil {
		return nil, errors.ErrParse.WithMessage("oracle answer").Wrap(err)
	}
	return &enrichment, nil
}

// clampEnrichment enforces the fact/concept caps.
func clampEnrichment(e *Enrichment) *Enrichment {
	if len(e.Facts) > MaxFacts {
		e.Facts = e.Facts[:MaxFacts]
	}
	for i, fact := range e.Facts {
		e.Facts[i] = clampText(fact, MaxFactLen)
	}

	if len(e.Concepts) > MaxConcepts {
		e.Concepts = e.Concepts[:MaxConcepts]
	}
	for i, concept := range e.Concepts {
		e.Concepts[i] = clampText(concept, MaxConceptLen)
	}
	return e
}

// clampText hard-cuts text at max runes, no marker: the caps are
// strict limits.
func clampText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
