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
	"sync"

	"github.com/google/uuid"

	"github.com/sage-x-project/memkit/pkg/errors"
)

// MockProvider is a mock LLM provider for testing. It implements both
// Provider and Embedder.
type MockProvider struct {
	mu         sync.Mutex
	name       string
	responses  []string
	index      int
	dimensions int
	embedErr   error
}

// NewMockProvider creates a new mock provider with pre-defined
// responses.
func NewMockProvider(name string, responses []string) *MockProvider {
	return &MockProvider{
		name:       name,
		responses:  responses,
		dimensions: 8,
	}
}

// WithDimensions sets the embedding dimension of the mock.
func (m *MockProvider) WithDimensions(dims int) *MockProvider {
	m.dimensions = dims
	return m
}

// WithEmbedError makes Embed fail with the given error.
func (m *MockProvider) WithEmbedError(err error) *MockProvider {
	m.embedErr = err
	return m
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return m.name
}

// Complete returns the next pre-defined response.
func (m *MockProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index >= len(m.responses) {
		return nil, errors.ErrOracleRefused.WithMessage("no more mock responses available")
	}

	content := m.responses[m.index]
	m.index++

	return &CompletionResponse{
		ID:           "mock-" + uuid.New().String(),
		Model:        req.Model,
		Content:      content,
		FinishReason: "stop",
		Usage: &Usage{
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
		},
	}, nil
}

// Embed returns deterministic vectors derived from the text lengths.
func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.dimensions)
		for j := range v {
			v[j] = float32((len(text)+i+j)%17) / 17.0
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimensions returns the mock embedding dimension.
func (m *MockProvider) Dimensions() int {
	return m.dimensions
}

// CallCount returns the number of completions served.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}
