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

package errors

// LLM provider errors (enrichment oracle, embedding provider)
var (
	// ErrProviderNotSet indicates no LLM provider is configured.
	ErrProviderNotSet = &Error{
		Category: CategoryLLM,
		Code:     "PROVIDER_NOT_SET",
		Message:  "LLM provider not configured",
	}

	// ErrOracleTimeout indicates the enrichment oracle did not answer in time.
	ErrOracleTimeout = &Error{
		Category: CategoryLLM,
		Code:     "ORACLE_TIMEOUT",
		Message:  "enrichment oracle timed out",
	}

	// ErrOracleRefused indicates the enrichment oracle declined to answer.
	ErrOracleRefused = &Error{
		Category: CategoryLLM,
		Code:     "ORACLE_REFUSED",
		Message:  "enrichment oracle returned no result",
	}

	// ErrEmbeddingFailed indicates the embedding provider failed.
	ErrEmbeddingFailed = &Error{
		Category: CategoryLLM,
		Code:     "EMBEDDING_FAILED",
		Message:  "embedding generation failed",
	}
)
