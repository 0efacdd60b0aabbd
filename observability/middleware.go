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

package observability

import (
	"net/http"
	"time"

	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/observability/metrics"
)

const (
	// MetricHTTPRequests counts HTTP requests served by the viewer.
	MetricHTTPRequests = "memkit_http_requests_total"
	// MetricHTTPDuration observes HTTP request duration in seconds.
	MetricHTTPDuration = "memkit_http_request_duration_seconds"
	// MetricHTTPErrors counts HTTP error responses.
	MetricHTTPErrors = "memkit_http_errors_total"
)

// Middleware provides HTTP middleware for observability.
type Middleware struct {
	logger      logging.Logger
	collector   metrics.Collector
	serviceName string
}

// NewMiddleware creates a new observability middleware.
func NewMiddleware(logger logging.Logger, collector metrics.Collector, serviceName string) *Middleware {
	return &Middleware{
		logger:      logger,
		collector:   collector,
		serviceName: serviceName,
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Handler returns an HTTP middleware that logs requests and records metrics.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create context with request ID
		ctx := r.Context()
		requestID := r.Header.Get("X-Request-ID")
		if requestID != "" {
			ctx = logging.WithRequestID(ctx, requestID)
		}
		r = r.WithContext(ctx)

		// Wrap response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Serve request
		next.ServeHTTP(rw, r)

		// Calculate duration
		duration := time.Since(start).Seconds()

		labels := metrics.NewLabels(
			"service", m.serviceName,
			"method", r.Method,
			"path", r.URL.Path,
		)
		m.collector.IncrementCounter(MetricHTTPRequests, labels)
		m.collector.ObserveHistogram(MetricHTTPDuration, duration, labels)

		// Record error for 4xx and 5xx status
		if rw.statusCode >= 400 {
			errorType := "client_error"
			if rw.statusCode >= 500 {
				errorType = "server_error"
			}
			m.collector.IncrementCounter(MetricHTTPErrors, labels.With("type", errorType))

			m.logger.Error(ctx, "request error",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rw.statusCode),
				logging.Float64("duration_sec", duration),
			)
		} else {
			m.logger.Info(ctx, "request completed",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rw.statusCode),
				logging.Float64("duration_sec", duration),
				logging.Int("bytes_written", int(rw.written)),
			)
		}
	})
}

// HandlerFunc returns an HTTP middleware that can wrap http.HandlerFunc.
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Handler(next).ServeHTTP(w, r)
	}
}
