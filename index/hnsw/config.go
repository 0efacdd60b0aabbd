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

package hnsw

import (
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
)

// Metric selects the distance function.
type Metric string

const (
	// MetricCosine is 1 - (a·b)/(‖a‖·‖b‖). Identical vectors score 0,
	// opposite vectors score 2.
	MetricCosine Metric = "cosine"
	// MetricEuclidean is the L2 norm of a-b.
	MetricEuclidean Metric = "euclidean"
	// MetricDot is -(a·b), negated so smaller means more similar.
	MetricDot Metric = "dot"
	// MetricManhattan is the L1 norm of a-b.
	MetricManhattan Metric = "manhattan"
)

// IsValid checks if the metric is one of the known kinds.
func (m Metric) IsValid() bool {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDot, MetricManhattan:
		return true
	}
	return false
}

// Quantization selects the compressed vector representation.
type Quantization string

const (
	// QuantizationNone stores raw float32 vectors.
	QuantizationNone Quantization = "none"
	// QuantizationBinary stores one sign bit per dimension (32x).
	QuantizationBinary Quantization = "binary"
	// QuantizationScalar stores 8-bit codes per dimension (4x).
	QuantizationScalar Quantization = "scalar"
	// QuantizationProduct stores 4-bit codes over subvector groups (8x).
	QuantizationProduct Quantization = "product"
)

// IsValid checks if the quantization mode is one of the known kinds.
func (q Quantization) IsValid() bool {
	switch q {
	case QuantizationNone, QuantizationBinary, QuantizationScalar, QuantizationProduct:
		return true
	}
	return false
}

// Default graph parameters.
const (
	DefaultM              = 16
	DefaultEfConstruction = 200
	DefaultEfSearch       = 50
	DefaultMaxElements    = 100000
	// DefaultProductSubvectors is the subvector group count for product
	// quantization.
	DefaultProductSubvectors = 8
)

// Config holds index configuration.
type Config struct {
	// Dimensions is the fixed vector dimension. Required.
	Dimensions int

	// M is the max graph degree per layer. Default 16.
	M int

	// EfConstruction is the search breadth during insert. Default 200.
	EfConstruction int

	// EfSearch is the runtime search breadth. Default 50.
	EfSearch int

	// MaxElements caps the number of live points. Default 100000.
	MaxElements int

	// Metric selects the distance function. Default cosine.
	Metric Metric

	// Quantization selects vector compression. Default none.
	Quantization Quantization

	// ProductSubvectors is the group count for product quantization.
	// Default 8.
	ProductSubvectors int

	// Seed fixes the level generator for reproducible graphs. 0 uses a
	// time-derived seed.
	Seed int64

	// Bus receives index events. Optional.
	Bus *events.Bus
}

// withDefaults fills zero fields with defaults and validates.
func (c Config) withDefaults() (Config, error) {
	if c.Dimensions < 1 {
		return c, errors.ErrInvalidInput.WithMessage("index dimensions must be positive")
	}
	if c.M == 0 {
		c.M = DefaultM
	}
	if c.M < 2 {
		return c, errors.ErrInvalidInput.WithMessage("index M must be at least 2")
	}
	if c.EfConstruction == 0 {
		c.EfConstruction = DefaultEfConstruction
	}
	if c.EfConstruction < c.M {
		c.EfConstruction = c.M
	}
	if c.EfSearch == 0 {
		c.EfSearch = DefaultEfSearch
	}
	if c.MaxElements == 0 {
		c.MaxElements = DefaultMaxElements
	}
	if c.Metric == "" {
		c.Metric = MetricCosine
	}
	if !c.Metric.IsValid() {
		return c, errors.ErrInvalidInput.WithDetail("metric", string(c.Metric))
	}
	if c.Quantization == "" {
		c.Quantization = QuantizationNone
	}
	if !c.Quantization.IsValid() {
		return c, errors.ErrInvalidInput.WithDetail("quantization", string(c.Quantization))
	}
	if c.ProductSubvectors == 0 {
		c.ProductSubvectors = DefaultProductSubvectors
	}
	return c, nil
}
