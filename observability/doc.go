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

// Package observability wires logging, metrics, and health checks into a
// single manager for memkit services.
//
// # Usage
//
//	manager, err := observability.NewManager(&observability.ManagerConfig{
//	    ServiceName: "memkit",
//	    Config:      observability.DefaultConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Shutdown(context.Background())
//
//	// Structured logging
//	logger := manager.Logger()
//	logger.Info(ctx, "entry stored", logging.String("namespace", ns))
//
//	// Store metrics
//	storeMetrics := manager.StoreMetrics()
//	storeMetrics.RecordOperation("store", "sqlite", 0.042)
//
//	// Expose endpoints
//	http.ListenAndServe(":9090", manager.HTTPHandler())
//
// The manager mounts /metrics (Prometheus) plus /health/live,
// /health/ready, and /health/startup probes, and provides an HTTP
// middleware that logs viewer requests and records request metrics.
package observability
