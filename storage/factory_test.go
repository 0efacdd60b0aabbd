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
	"context"
	"testing"

	"github.com/sage-x-project/memkit/config"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
)

func TestNewEngine_SQLite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.BaseDir = t.TempDir()

	engine, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, ok := engine.(*SQLiteEngine); !ok {
		t.Fatalf("engine = %T, want *SQLiteEngine", engine)
	}

	// The factory output is a working engine rooted at the configured
	// base dir.
	ctx := context.Background()
	if err := engine.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer engine.Close()

	if err := engine.Store(ctx, testEntry("ns", "k", "c")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	count, err := engine.Count(ctx, "ns")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestNewEngine_SQLiteDefault(t *testing.T) {
	// An empty backend falls back to sqlite.
	cfg := config.DefaultConfig()
	cfg.Store.BaseDir = t.TempDir()
	cfg.Store.Backend = ""

	engine, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, ok := engine.(*SQLiteEngine); !ok {
		t.Errorf("engine = %T, want *SQLiteEngine", engine)
	}
}

func TestNewEngine_Postgres(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "postgres"
	cfg.Store.Postgres = config.PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "memkit",
		Password: "secret",
		Database: "memkit",
		SSLMode:  "require",
	}

	engine, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	pg, ok := engine.(*PostgresEngine)
	if !ok {
		t.Fatalf("engine = %T, want *PostgresEngine", engine)
	}
	if pg.config.Host != "db.internal" || pg.config.Port != 5433 {
		t.Errorf("postgres config = %+v, want host/port carried over", pg.config)
	}
	if pg.config.User != "memkit" || pg.config.Database != "memkit" {
		t.Errorf("postgres config = %+v, want credentials carried over", pg.config)
	}
	if pg.config.SSLMode != "require" {
		t.Errorf("SSLMode = %q, want require", pg.config.SSLMode)
	}
}

func TestNewEngine_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "leveldb"

	if _, err := NewEngine(cfg, nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewEngine(leveldb) = %v, want ErrInvalidInput", err)
	}
}

func TestNewEngine_NilConfig(t *testing.T) {
	if _, err := NewEngine(nil, nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewEngine(nil) = %v, want ErrInvalidInput", err)
	}
}

func TestNewEngine_DepsWired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.BaseDir = t.TempDir()

	engine, err := NewEngine(cfg, &EngineDeps{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	// Empty deps still produce an engine with a usable logger.
	ctx := context.Background()
	if err := engine.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer engine.Close()

	if _, err := engine.Query(ctx, &types.Query{Type: types.QueryHybrid}); err != nil {
		t.Errorf("Query() error = %v", err)
	}
}
