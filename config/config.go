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
	"path/filepath"
	"time"
)

// Config represents the complete configuration for memkit.
type Config struct {
	Store    StoreConfig    `json:"store" yaml:"store"`
	Index    IndexConfig    `json:"index" yaml:"index"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Viewer   ViewerConfig   `json:"viewer" yaml:"viewer"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// StoreConfig contains storage engine configuration.
type StoreConfig struct {
	// Backend selects the engine: "sqlite" or "postgres".
	Backend string `json:"backend" yaml:"backend"`

	// BaseDir is the project directory; the database lives at
	// <base_dir>/.claude/memory.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// DBName is the database file name.
	DBName string `json:"db_name" yaml:"db_name"`

	// Tokenizer selects the FTS tokenizer: "unicode61", "porter",
	// "trigram", or a caller-supplied tokenizer string.
	Tokenizer string `json:"tokenizer" yaml:"tokenizer"`

	// BusyTimeout is how long a locked database is retried.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// Postgres holds connection settings for the postgres backend.
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

// IndexConfig contains HNSW vector index configuration.
type IndexConfig struct {
	// Dimensions is the fixed embedding dimension.
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// M is the max graph degree per layer.
	M int `json:"m" yaml:"m"`

	// EfConstruction is the search breadth during insert.
	EfConstruction int `json:"ef_construction" yaml:"ef_construction"`

	// EfSearch is the runtime search breadth.
	EfSearch int `json:"ef_search" yaml:"ef_search"`

	// MaxElements caps the index size.
	MaxElements int `json:"max_elements" yaml:"max_elements"`

	// Metric selects the distance: "cosine", "euclidean", "dot",
	// "manhattan".
	Metric string `json:"metric" yaml:"metric"`

	// Quantization selects vector compression: "none", "binary",
	// "scalar", "product".
	Quantization string `json:"quantization" yaml:"quantization"`
}

// CacheConfig contains entry cache configuration.
type CacheConfig struct {
	// MaxSize is the maximum number of cached entries.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxMemory is the byte budget; 0 disables the budget.
	MaxMemory int64 `json:"max_memory" yaml:"max_memory"`

	// TTL is the default entry time-to-live.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// CleanupInterval is the background expiry sweep period.
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`

	// Redis configures the optional remote cache tier.
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// RedisConfig contains Redis connection settings for the remote cache
// tier.
type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// PipelineConfig contains hook pipeline configuration.
type PipelineConfig struct {
	// ResponseLimit caps the serialized tool response in bytes.
	ResponseLimit int `json:"response_limit" yaml:"response_limit"`

	// OracleTimeout bounds one enrichment oracle call.
	OracleTimeout time.Duration `json:"oracle_timeout" yaml:"oracle_timeout"`

	// OracleRate caps oracle calls per second; 0 disables the limit.
	OracleRate float64 `json:"oracle_rate" yaml:"oracle_rate"`
}

// LLMConfig contains LLM provider configuration for the enrichment
// oracle and the embedding provider.
type LLMConfig struct {
	// Provider selects the backend: "openai", "anthropic", or "mock".
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the provider API key; falls back to the provider's
	// environment variable when empty.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the completion model.
	Model string `json:"model" yaml:"model"`

	// EmbeddingModel is the embedding model.
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// MaxTokens caps completion length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// ViewerConfig contains HTTP viewer settings.
type ViewerConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`             // "debug", "info", "warn", "error"
	Format     string `json:"format" yaml:"format"`           // "json", "zap"
	OutputPath string `json:"output_path" yaml:"output_path"` // "stdout", "stderr", file path
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:     "sqlite",
			BaseDir:     ".",
			DBName:      "memory.db",
			Tokenizer:   "unicode61",
			BusyTimeout: 5 * time.Second,
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Index: IndexConfig{
			Dimensions:     384,
			M:              16,
			EfConstruction: 200,
			EfSearch:       50,
			MaxElements:    100000,
			Metric:         "cosine",
			Quantization:   "none",
		},
		Cache: CacheConfig{
			MaxSize:         1000,
			MaxMemory:       0,
			TTL:             5 * time.Minute,
			CleanupInterval: time.Minute,
			Redis: RedisConfig{
				Enabled: false,
				Host:    "localhost",
				Port:    6379,
			},
		},
		Pipeline: PipelineConfig{
			ResponseLimit: 5000,
			OracleTimeout: 15 * time.Second,
			OracleRate:    1,
		},
		LLM: LLMConfig{
			Provider:    "", // Provider must be set when enrichment is used
			MaxTokens:   1000,
			Temperature: 0.2,
		},
		Viewer: ViewerConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            8391,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// NewConfig creates a new default configuration.
// This is an alias for DefaultConfig().
func NewConfig() *Config {
	return DefaultConfig()
}

// MemoryDir returns the directory holding the database file.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.Store.BaseDir, ".claude", "memory")
}

// DBPath returns the full path of the database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.MemoryDir(), c.Store.DBName)
}
