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
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser indicates a message from the user.
	RoleUser MessageRole = "user"

	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant MessageRole = "assistant"

	// RoleSystem indicates a system message.
	RoleSystem MessageRole = "system"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role is the sender of the message.
	Role MessageRole `json:"role"`

	// Content is the message content.
	Content string `json:"content"`
}

// CompletionRequest represents a request to an LLM provider.
type CompletionRequest struct {
	// Model is the model name to use. Empty uses the provider default.
	Model string `json:"model"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse represents a response from an LLM provider.
type CompletionResponse struct {
	// ID is the unique response identifier.
	ID string `json:"id"`

	// Model is the model that generated the response.
	Model string `json:"model"`

	// Content is the generated content.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	FinishReason string `json:"finish_reason"`

	// Usage contains token usage information.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used.
	TotalTokens int `json:"total_tokens"`
}

// Provider defines the interface for LLM completion providers.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete generates a completion for the given request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Embedder defines the interface for embedding providers. Embeddings
// arrive as opaque float vectors; memkit never trains or hosts a
// model.
type Embedder interface {
	// Name returns the provider name.
	Name() string

	// Embed returns one dense vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension of the configured
	// model.
	Dimensions() int
}
