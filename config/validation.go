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

package config

import (
	"fmt"
)

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateIndex(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	if err := c.validateLLM(); err != nil {
		return err
	}

	if err := c.validateViewer(); err != nil {
		return err
	}

	return nil
}

// validateStore validates storage configuration.
func (c *Config) validateStore() error {
	validBackends := map[string]bool{
		"sqlite":   true,
		"postgres": true,
	}

	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("store backend must be one of: sqlite, postgres")
	}

	if c.Store.DBName == "" {
		return fmt.Errorf("store db name must not be empty")
	}

	if c.Store.Backend == "postgres" {
		if err := c.validatePostgres(); err != nil {
			return err
		}
	}

	return nil
}

// validatePostgres validates PostgreSQL configuration.
func (c *Config) validatePostgres() error {
	if c.Store.Postgres.Host == "" {
		return fmt.Errorf("postgres host must not be empty")
	}

	if c.Store.Postgres.Port < 1 || c.Store.Postgres.Port > 65535 {
		return fmt.Errorf("postgres port must be between 1 and 65535")
	}

	if c.Store.Postgres.User == "" {
		return fmt.Errorf("postgres user must not be empty")
	}

	if c.Store.Postgres.Database == "" {
		return fmt.Errorf("postgres database must not be empty")
	}

	return nil
}

// validateIndex validates vector index configuration.
func (c *Config) validateIndex() error {
	if c.Index.Dimensions < 1 {
		return fmt.Errorf("index dimensions must be positive")
	}

	if c.Index.M < 2 {
		return fmt.Errorf("index M must be at least 2")
	}

	if c.Index.EfConstruction < c.Index.M {
		return fmt.Errorf("index efConstruction must be at least M")
	}

	if c.Index.EfSearch < 1 {
		return fmt.Errorf("index efSearch must be positive")
	}

	if c.Index.MaxElements < 1 {
		return fmt.Errorf("index maxElements must be positive")
	}

	validMetrics := map[string]bool{
		"cosine":    true,
		"euclidean": true,
		"dot":       true,
		"manhattan": true,
	}

	if !validMetrics[c.Index.Metric] {
		return fmt.Errorf("index metric must be one of: cosine, euclidean, dot, manhattan")
	}

	validQuantization := map[string]bool{
		"none":    true,
		"binary":  true,
		"scalar":  true,
		"product": true,
	}

	if !validQuantization[c.Index.Quantization] {
		return fmt.Errorf("index quantization must be one of: none, binary, scalar, product")
	}

	return nil
}

// validateCache validates cache configuration.
func (c *Config) validateCache() error {
	if c.Cache.MaxSize < 1 {
		return fmt.Errorf("cache max size must be positive")
	}

	if c.Cache.MaxMemory < 0 {
		return fmt.Errorf("cache max memory must not be negative")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.Cache.Redis.Enabled {
		if c.Cache.Redis.Host == "" {
			return fmt.Errorf("redis host must not be empty")
		}
		if c.Cache.Redis.Port < 1 || c.Cache.Redis.Port > 65535 {
			return fmt.Errorf("redis port must be between 1 and 65535")
		}
	}

	return nil
}

// validatePipeline validates hook pipeline configuration.
func (c *Config) validatePipeline() error {
	if c.Pipeline.ResponseLimit < 1 {
		return fmt.Errorf("pipeline response limit must be positive")
	}

	if c.Pipeline.OracleTimeout <= 0 {
		return fmt.Errorf("pipeline oracle timeout must be positive")
	}

	if c.Pipeline.OracleRate < 0 {
		return fmt.Errorf("pipeline oracle rate must not be negative")
	}

	return nil
}

// validateLLM validates LLM configuration.
func (c *Config) validateLLM() error {
	// If provider is empty, skip validation (LLM is optional)
	if c.LLM.Provider == "" {
		return nil
	}

	validProviders := map[string]bool{
		"openai":    true,
		"anthropic": true,
		"mock":      true,
	}

	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM provider must be one of: openai, anthropic, mock")
	}

	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("LLM max tokens must not be negative")
	}

	return nil
}

// validateViewer validates viewer configuration.
func (c *Config) validateViewer() error {
	if !c.Viewer.Enabled {
		return nil
	}

	if c.Viewer.Port < 1 || c.Viewer.Port > 65535 {
		return fmt.Errorf("viewer port must be between 1 and 65535")
	}

	if c.Viewer.ReadTimeout <= 0 {
		return fmt.Errorf("viewer read timeout must be positive")
	}

	if c.Viewer.WriteTimeout <= 0 {
		return fmt.Errorf("viewer write timeout must be positive")
	}

	return nil
}
