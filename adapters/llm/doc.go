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

// Package llm provides the LLM provider adapters consumed by the hook
// pipeline's enrichment oracle and by the facade's embedding
// generation.
//
// A Provider answers completion requests; an Embedder turns text into
// dense float vectors. The OpenAI adapter implements both; the
// Anthropic adapter implements completions only (Anthropic exposes no
// embedding endpoint). The mock provider serves tests.
//
// Providers read their API keys from configuration or from the
// conventional environment variables (OPENAI_API_KEY,
// ANTHROPIC_API_KEY). All calls are context-bound; the caller owns
// timeouts.
//
// Example:
//
//	provider := llm.OpenAI(&llm.OpenAIConfig{Model: "gpt-4o-mini"})
//
//	resp, err := provider.Complete(ctx, &llm.CompletionRequest{
//	    Messages: []llm.Message{
//	        {Role: llm.RoleUser, Content: "Summarize this tool call."},
//	    },
//	})
package llm
