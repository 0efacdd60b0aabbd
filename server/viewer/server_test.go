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

package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/storage"
)

func newTestServer(t *testing.T) (*Server, *memory.Service) {
	t.Helper()

	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "memory.db"),
	})
	svc := memory.New(engine)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	return New(Config{Service: svc}), svc
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestViewer_Index(t *testing.T) {
	server, _ := newTestServer(t)

	rec := get(t, server, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestViewer_Entries(t *testing.T) {
	server, svc := newTestServer(t)
	ctx := context.Background()

	svc.StoreEntry(ctx, &types.Entry{Namespace: "patterns", Key: "auth", Content: "JWT rules"})
	svc.StoreEntry(ctx, &types.Entry{Namespace: "errors", Key: "timeout", Content: "retry after backoff"})

	rec := get(t, server, "/api/entries?namespace=patterns")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var results []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}

	// Keyword search through the q parameter.
	rec = get(t, server, "/api/entries?q=JWT")
	json.Unmarshal(rec.Body.Bytes(), &results)
	if len(results) != 1 {
		t.Errorf("keyword results = %d, want 1", len(results))
	}
}

func TestViewer_EntryByID(t *testing.T) {
	server, svc := newTestServer(t)

	entry := &types.Entry{Namespace: "ns", Key: "k", Content: "c"}
	svc.StoreEntry(context.Background(), entry)

	rec := get(t, server, "/api/entries/"+entry.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = get(t, server, "/api/entries/mem-missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", rec.Code)
	}
}

func TestViewer_Namespaces(t *testing.T) {
	server, svc := newTestServer(t)
	svc.StoreEntry(context.Background(), &types.Entry{Namespace: "a", Key: "k", Content: "c"})

	rec := get(t, server, "/api/namespaces")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var namespaces []string
	json.Unmarshal(rec.Body.Bytes(), &namespaces)
	if len(namespaces) != 1 || namespaces[0] != "a" {
		t.Errorf("namespaces = %v", namespaces)
	}
}

func TestViewer_StatsAndHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rec := get(t, server, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}

	rec = get(t, server, "/api/health")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestViewer_RateLimit(t *testing.T) {
	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "memory.db"),
	})
	svc := memory.New(engine)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer svc.Shutdown(context.Background())

	server := New(Config{Service: svc, RateLimit: 2})
	defer server.Shutdown(context.Background())

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}
}
