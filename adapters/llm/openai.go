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
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sage-x-project/memkit/pkg/errors"
)

const (
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = openai.SmallEmbedding3
	defaultOpenAIEmbeddingDims  = 1536
)

// OpenAIProvider implements Provider and Embedder for OpenAI.
type OpenAIProvider struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	dimensions     int
}

// OpenAIConfig contains OpenAI-specific configuration.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	// If empty, uses OPENAI_API_KEY environment variable.
	APIKey string

	// Model is the completion model (e.g. "gpt-4o", "gpt-4o-mini").
	// Default: "gpt-4o-mini"
	Model string

	// EmbeddingModel is the embedding model.
	// Default: "text-embedding-3-small"
	EmbeddingModel string

	// Dimensions is the embedding dimension of the configured model.
	// Default: 1536 (text-embedding-3-small)
	Dimensions int

	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string
}

// OpenAI creates a new OpenAI provider with optional configuration.
//
// If no config is provided, uses environment variables:
//   - OPENAI_API_KEY: API key (required)
//   - OPENAI_MODEL: Model name (optional, default: gpt-4o-mini)
func OpenAI(config ...*OpenAIConfig) *OpenAIProvider {
	var cfg *OpenAIConfig
	if len(config) > 0 && config[0] != nil {
		cfg = config[0]
	} else {
		cfg = &OpenAIConfig{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	embeddingModel := openai.EmbeddingModel(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultOpenAIEmbeddingModel
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = defaultOpenAIEmbeddingDims
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          model,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete generates a completion.
func (p *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, errors.ErrInvalidInput.WithMessage("completion request requires messages")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, errors.ErrProviderNotSet.WithMessage("openai completion").Wrap(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.ErrOracleRefused.WithMessage("openai returned no choices")
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Embed returns one embedding per input text.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: p.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, errors.ErrEmbeddingFailed.Wrap(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.ErrEmbeddingFailed.
			WithDetail("requested", len(texts)).
			WithDetail("returned", len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension of the configured model.
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}
