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

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sage-x-project/memkit/pkg/errors"
)

var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Embedder = (*OpenAIProvider)(nil)
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*MockProvider)(nil)
	_ Embedder = (*MockProvider)(nil)
)

func TestMockProvider_Complete(t *testing.T) {
	mock := NewMockProvider("mock", []string{"first", "second"})

	resp, err := mock.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "first" {
		t.Errorf("Content = %q, want first", resp.Content)
	}

	resp, _ = mock.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if resp.Content != "second" {
		t.Errorf("Content = %q, want second", resp.Content)
	}

	if _, err := mock.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}); !errors.Is(err, errors.ErrOracleRefused) {
		t.Errorf("exhausted mock = %v, want ErrOracleRefused", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", mock.CallCount())
	}
}

func TestMockProvider_Embed(t *testing.T) {
	mock := NewMockProvider("mock", nil).WithDimensions(4)

	vectors, err := mock.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("len(vectors) = %d, want 2", len(vectors))
	}
	for _, v := range vectors {
		if len(v) != 4 {
			t.Errorf("vector dims = %d, want 4", len(v))
		}
	}

	// Deterministic: same input, same vector.
	again, _ := mock.Embed(context.Background(), []string{"alpha"})
	if again[0][0] != vectors[0][0] {
		t.Error("mock embeddings should be deterministic")
	}
}

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.System != "be terse" {
			t.Errorf("system = %q, want out-of-band system prompt", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg-1",
			"model":       req.Model,
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": "done"}},
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	provider := Anthropic(&AnthropicConfig{
		APIKey:     "test-key",
		HTTPClient: server.Client(),
	})
	// Route the request at the test server.
	provider.httpClient = &http.Client{
		Transport: rewriteTransport{target: server.URL},
	}

	resp, err := provider.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be terse"},
			{Role: RoleUser, Content: "summarize"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("Content = %q, want done", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
}

func TestAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	provider := Anthropic(&AnthropicConfig{})

	_, err := provider.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, errors.ErrProviderNotSet) {
		t.Errorf("missing key = %v, want ErrProviderNotSet", err)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	mock := NewMockProvider("mock", nil)

	registry.Register("mock", mock)

	got, err := registry.Get("mock")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != Provider(mock) {
		t.Error("Get should return the registered provider")
	}

	if _, err := registry.Get("missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	if registry.Default() != nil {
		t.Error("Default should be nil before SetDefault")
	}
	registry.SetDefault(mock)
	if registry.Default() != Provider(mock) {
		t.Error("Default should return the set provider")
	}
}

func TestFromName(t *testing.T) {
	if _, err := FromName("mock"); err != nil {
		t.Errorf("FromName(mock) error = %v", err)
	}
	if _, err := FromName("nonexistent"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("FromName(nonexistent) = %v, want ErrInvalidInput", err)
	}
}

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = rt.target[len("http://"):]
	return http.DefaultTransport.RoundTrip(req)
}
