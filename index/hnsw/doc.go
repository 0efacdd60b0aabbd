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

// Package hnsw implements an in-memory Hierarchical Navigable Small
// World graph for approximate nearest-neighbor search over embedding
// vectors.
//
// The index maps opaque string ids to fixed-dimension float32 vectors
// and answers k-NN queries under a configurable distance metric
// (cosine, euclidean, dot, manhattan). All distances are returned as
// "smaller = closer"; dot products are negated to fit.
//
// Optional vector quantization (binary, scalar, product) trades
// accuracy for memory. Distances computed on compressed vectors are
// approximations of the raw metric: result ordering may differ
// slightly from the raw-vector ordering, and exact-zero identities
// (such as cosine distance 0 for identical vectors) hold only for the
// none quantizer.
//
// Insertion and search are safe to interleave. A write lock serializes
// structural mutations; searches proceed against copy-on-write
// neighbor lists.
//
// Example:
//
//	idx, err := hnsw.New(hnsw.Config{
//	    Dimensions: 384,
//	    Metric:     hnsw.MetricCosine,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := idx.AddPoint("mem-1", vector); err != nil {
//	    return err
//	}
//
//	results, err := idx.Search(query, 10)
package hnsw
