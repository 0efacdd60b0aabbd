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

package storage

import (
	"github.com/sage-x-project/memkit/config"
	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
)

// EngineDeps carries the optional collaborators shared by every
// backend.
type EngineDeps struct {
	// Bus receives storage events.
	Bus *events.Bus

	// Index is the vector index consulted by Search.
	Index *hnsw.Index

	// Logger receives structured logs.
	Logger logging.Logger
}

// NewEngine constructs the engine selected by cfg.Store.Backend:
// "sqlite" (the default) or "postgres". Every entrypoint goes through
// this factory so the configured backend is honored everywhere.
func NewEngine(cfg *config.Config, deps *EngineDeps) (Engine, error) {
	if cfg == nil {
		return nil, errors.ErrInvalidInput.WithMessage("config is nil")
	}
	if deps == nil {
		deps = &EngineDeps{}
	}

	switch cfg.Store.Backend {
	case "sqlite", "":
		return NewSQLiteEngine(&SQLiteConfig{
			Path:        cfg.DBPath(),
			Tokenizer:   cfg.Store.Tokenizer,
			BusyTimeout: cfg.Store.BusyTimeout,
			Bus:         deps.Bus,
			Index:       deps.Index,
			Logger:      deps.Logger,
		}), nil
	case "postgres":
		return NewPostgresEngine(&PostgresConfig{
			Host:     cfg.Store.Postgres.Host,
			Port:     cfg.Store.Postgres.Port,
			User:     cfg.Store.Postgres.User,
			Password: cfg.Store.Postgres.Password,
			Database: cfg.Store.Postgres.Database,
			SSLMode:  cfg.Store.Postgres.SSLMode,
			Bus:      deps.Bus,
			Index:    deps.Index,
		}), nil
	default:
		return nil, errors.ErrInvalidInput.WithDetail("backend", cfg.Store.Backend)
	}
}
