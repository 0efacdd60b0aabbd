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

// Package memory provides the facade service: the single entry point
// owning the storage engine, the entry cache, and the HNSW vector
// index.
//
// The service threads the current session through writes, exposes
// session start/checkpoint/end, computes missing embeddings through
// an optional Embedder, keeps the vector index in step with entry
// writes, invalidates the cache on mutation, and shuts its components
// down in order (cache stop, index drop, storage close).
//
// Example:
//
//	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{Path: dbPath})
//	svc := memory.New(engine,
//	    memory.WithCache(cache.New[*types.Entry](cache.Config[*types.Entry]{MaxSize: 1000})),
//	    memory.WithIndex(idx),
//	)
//	if err := svc.Initialize(ctx); err != nil {
//	    return err
//	}
//	defer svc.Shutdown(ctx)
//
//	entry, err := svc.GetOrCreate(ctx, "patterns", "auth", func() (*types.Entry, error) {
//	    return &types.Entry{Namespace: "patterns", Key: "auth", Content: "JWT"}, nil
//	})
package memory
