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
	"strings"
	"testing"
	"time"

	"github.com/sage-x-project/memkit/adapters/llm"
	"github.com/sage-x-project/memkit/pkg/errors"
)

func TestLLMOracle_Enrich(t *testing.T) {
	provider := llm.NewMockProvider("mock", []string{
		`{"subtitle":"ran the build","narrative":"compiled cleanly","facts":["build passes"],"concepts":["build"]}`,
	})
	oracle := NewLLMOracle(LLMOracleConfig{Provider: provider})

	enrichment, err := oracle.Enrich(context.Background(), "Bash", `{"command":"make"}`, "ok")
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if enrichment.Subtitle != "ran the build" {
		t.Errorf("Subtitle = %q", enrichment.Subtitle)
	}
	if len(enrichment.Facts) != 1 || len(enrichment.Concepts) != 1 {
		t.Errorf("enrichment lists = %v / %v", enrichment.Facts, enrichment.Concepts)
	}
}

func TestLLMOracle_NoProvider(t *testing.T) {
	oracle := NewLLMOracle(LLMOracleConfig{})

	_, err := oracle.Enrich(context.Background(), "Bash", "", "")
	if !errors.Is(err, errors.ErrProviderNotSet) {
		t.Errorf("Enrich without provider = %v, want ErrProviderNotSet", err)
	}
}

func TestLLMOracle_RateLimit(t *testing.T) {
	provider := llm.NewMockProvider("mock", []string{
		`{"subtitle":"first"}`, `{"subtitle":"second"}`,
	})
	// One token, refilled far too slowly for this test.
	oracle := NewLLMOracle(LLMOracleConfig{Provider: provider, Rate: 0.001})

	if _, err := oracle.Enrich(context.Background(), "Bash", "", ""); err != nil {
		t.Fatalf("first Enrich() error = %v", err)
	}

	_, err := oracle.Enrich(context.Background(), "Bash", "", "")
	if !errors.Is(err, errors.ErrOracleRefused) {
		t.Errorf("rate-limited Enrich = %v, want ErrOracleRefused", err)
	}
	if provider.CallCount() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.CallCount())
	}
}

// countingProvider counts every Complete call, failed ones included;
// MockProvider.CallCount counts only served completions.
type countingProvider struct {
	*llm.MockProvider
	calls int
}

func (c *countingProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.calls++
	return c.MockProvider.Complete(ctx, req)
}

func (c *countingProvider) CallCount() int { return c.calls }

func TestLLMOracle_CircuitBreakerOpens(t *testing.T) {
	// A provider with no canned responses fails every completion.
	provider := &countingProvider{MockProvider: llm.NewMockProvider("mock", nil)}
	oracle := NewLLMOracle(LLMOracleConfig{
		Provider:         provider,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	})
	ctx := context.Background()

	// Each failed Enrich retries the provider once (2 calls) and counts
	// one breaker failure.
	for i := 0; i < 2; i++ {
		if _, err := oracle.Enrich(ctx, "Bash", "", ""); err == nil {
			t.Fatalf("Enrich %d should fail", i)
		}
	}
	callsBeforeOpen := provider.CallCount()
	if callsBeforeOpen != 4 {
		t.Fatalf("provider calls = %d, want 4 (2 attempts per Enrich)", callsBeforeOpen)
	}

	// The circuit is open: the provider is never consulted.
	_, err := oracle.Enrich(ctx, "Bash", "", "")
	if !errors.Is(err, errors.ErrOracleRefused) {
		t.Errorf("open-circuit Enrich = %v, want ErrOracleRefused", err)
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("open-circuit error = %v, want circuit open message", err)
	}
	if provider.CallCount() != callsBeforeOpen {
		t.Errorf("provider calls = %d after open circuit, want unchanged %d",
			provider.CallCount(), callsBeforeOpen)
	}
}

func TestLLMOracle_CircuitBreakerRecovers(t *testing.T) {
	provider := llm.NewMockProvider("mock", nil)
	oracle := NewLLMOracle(LLMOracleConfig{
		Provider:         provider,
		BreakerThreshold: 1,
		BreakerCooldown:  20 * time.Millisecond,
	})
	ctx := context.Background()

	// Trip the breaker.
	if _, err := oracle.Enrich(ctx, "Bash", "", ""); err == nil {
		t.Fatal("Enrich should fail")
	}
	if _, err := oracle.Enrich(ctx, "Bash", "", ""); !errors.Is(err, errors.ErrOracleRefused) {
		t.Fatalf("open-circuit Enrich = %v", err)
	}

	// After the cooldown a half-open probe reaches a now-healthy
	// provider and closes the circuit.
	time.Sleep(40 * time.Millisecond)
	providerOK := llm.NewMockProvider("mock", []string{`{"subtitle":"recovered"}`, `{"subtitle":"steady"}`})
	oracle.provider = providerOK

	enrichment, err := oracle.Enrich(ctx, "Bash", "", "")
	if err != nil {
		t.Fatalf("half-open Enrich() error = %v", err)
	}
	if enrichment.Subtitle != "recovered" {
		t.Errorf("Subtitle = %q", enrichment.Subtitle)
	}

	// Closed again: the next call goes straight through.
	if _, err := oracle.Enrich(ctx, "Bash", "", ""); err != nil {
		t.Errorf("post-recovery Enrich() error = %v", err)
	}
}
