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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/memkit/cache"
	"github.com/sage-x-project/memkit/config"
	"github.com/sage-x-project/memkit/index/hnsw"
	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/observability"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/server/viewer"
	"github.com/sage-x-project/memkit/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the memory viewer",
	Long: `Start the HTTP viewer over the project's memory store.

The viewer serves read-only JSON endpoints for entries, sessions, and
statistics, and streams store events to websocket clients.

Example:
  memkit serve
  memkit serve --port 9000 --host 0.0.0.0`,
	RunE: runServe,
}

var (
	servePort int
	serveHost string
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Viewer port")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Viewer host")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if servePort != 0 {
		cfg.Viewer.Port = servePort
	}
	if serveHost != "" {
		cfg.Viewer.Host = serveHost
	}

	manager, err := observability.NewManager(&observability.ManagerConfig{
		ServiceName: "memkit",
		Config:      observability.DefaultConfig(),
	})
	if err != nil {
		return err
	}
	defer manager.Shutdown(ctx)
	logger := manager.Logger()

	bus := events.NewBus()

	idx, err := hnsw.New(hnsw.Config{
		Dimensions:     cfg.Index.Dimensions,
		M:              cfg.Index.M,
		EfConstruction: cfg.Index.EfConstruction,
		EfSearch:       cfg.Index.EfSearch,
		MaxElements:    cfg.Index.MaxElements,
		Metric:         hnsw.Metric(cfg.Index.Metric),
		Quantization:   hnsw.Quantization(cfg.Index.Quantization),
		Bus:            bus,
	})
	if err != nil {
		return err
	}

	engine, err := storage.NewEngine(cfg, &storage.EngineDeps{
		Bus:    bus,
		Index:  idx,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	entryCache := cache.New[*types.Entry](cache.Config[*types.Entry]{
		MaxSize:         cfg.Cache.MaxSize,
		MaxMemory:       cfg.Cache.MaxMemory,
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
		Bus:             bus,
	})

	svc := memory.New(engine,
		memory.WithCache(entryCache),
		memory.WithIndex(idx),
		memory.WithBus(bus),
		memory.WithLogger(logger),
		memory.WithMetrics(manager.StoreMetrics()),
	)
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Shutdown(ctx)

	// Warm the vector index from the persisted embeddings.
	if err := svc.RebuildIndex(ctx); err != nil {
		return err
	}
	manager.MarkReady()

	server := viewer.New(viewer.Config{
		Host:         cfg.Viewer.Host,
		Port:         cfg.Viewer.Port,
		ReadTimeout:  cfg.Viewer.ReadTimeout,
		WriteTimeout: cfg.Viewer.WriteTimeout,
		Service:      svc,
		Bus:          bus,
		Logger:       logger,
		Middleware:   manager.Middleware(),
		RateLimit:    600,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Viewer.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	fmt.Println("viewer stopped")
	return nil
}
