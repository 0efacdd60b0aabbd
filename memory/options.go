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

package memory

import (
	"github.com/sage-x-project/memkit/adapters/llm"
	"github.com/sage-x-project/memkit/cache"
	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/observability/metrics"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
)

// Option configures the service.
type Option func(*Service)

// WithCache installs the entry cache fronting storage reads.
func WithCache(c *cache.Cache[*types.Entry]) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithIndex installs the vector index kept in step with entry writes.
func WithIndex(idx *hnsw.Index) Option {
	return func(s *Service) {
		s.index = idx
	}
}

// WithLogger installs the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics installs the store metrics recorder.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBus installs the event bus. The service starts it on Initialize
// and stops it on Shutdown.
func WithBus(bus *events.Bus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithEmbedder installs the embedding provider used to compute
// missing entry embeddings. Embeddings are opaque vectors from the
// collaborator; without an embedder entries simply stay unindexed.
func WithEmbedder(embedder llm.Embedder) Option {
	return func(s *Service) {
		s.embedder = embedder
	}
}
