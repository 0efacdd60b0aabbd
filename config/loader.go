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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a file (YAML or JSON).
// The file format is determined by the file extension (.yaml, .yml, or .json).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	// Apply environment variable overrides
	if err := cfg.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from a file when the path exists,
// falling back to defaults (still applying environment overrides).
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadFromFile(path)
		}
	}

	cfg := DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads configuration from environment variables.
// Environment variables take precedence over file-based configuration.
// Format: MEMKIT_<SECTION>_<FIELD> (e.g. MEMKIT_STORE_BASE_DIR).
func (c *Config) LoadEnv() error {
	// Store config
	if v := os.Getenv("MEMKIT_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("MEMKIT_STORE_BASE_DIR"); v != "" {
		c.Store.BaseDir = v
	}
	if v := os.Getenv("MEMKIT_STORE_DB_NAME"); v != "" {
		c.Store.DBName = v
	}
	if v := os.Getenv("MEMKIT_STORE_TOKENIZER"); v != "" {
		c.Store.Tokenizer = v
	}

	// Index config
	if v := os.Getenv("MEMKIT_INDEX_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.Dimensions = n
		}
	}
	if v := os.Getenv("MEMKIT_INDEX_METRIC"); v != "" {
		c.Index.Metric = v
	}
	if v := os.Getenv("MEMKIT_INDEX_QUANTIZATION"); v != "" {
		c.Index.Quantization = v
	}

	// Cache config
	if v := os.Getenv("MEMKIT_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.MaxSize = n
		}
	}
	if v := os.Getenv("MEMKIT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}

	// Pipeline config
	if v := os.Getenv("MEMKIT_PIPELINE_ORACLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Pipeline.OracleTimeout = d
		}
	}

	// LLM config
	if v := os.Getenv("MEMKIT_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("MEMKIT_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("MEMKIT_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("MEMKIT_LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}

	// Viewer config
	if v := os.Getenv("MEMKIT_VIEWER_HOST"); v != "" {
		c.Viewer.Host = v
	}
	if v := os.Getenv("MEMKIT_VIEWER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Viewer.Port = n
		}
	}

	// Logging config
	if v := os.Getenv("MEMKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MEMKIT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	return nil
}
