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
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/observability"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/events"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/ratelimit"
)

// Config holds viewer configuration.
type Config struct {
	// Host to bind. Default "127.0.0.1".
	Host string

	// Port to bind. Default 8391.
	Port int

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Service is the memory facade to serve. Required.
	Service *memory.Service

	// Bus feeds the websocket event stream. Optional.
	Bus *events.Bus

	// Logger receives structured logs. Optional.
	Logger logging.Logger

	// Middleware wraps all routes with logging and metrics. Optional.
	Middleware *observability.Middleware

	// RateLimit caps requests per client per minute. 0 disables.
	RateLimit int
}

// Server is the HTTP viewer.
type Server struct {
	config  Config
	logger  logging.Logger
	httpSrv *http.Server
	hub     *wsHub
	limiter ratelimit.Limiter
}

// New creates a viewer server.
func New(config Config) *Server {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	if config.Port == 0 {
		config.Port = 8391
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewStructuredLogger(logging.LevelInfo)
	}

	s := &Server{
		config: config,
		logger: logger,
		hub:    newWSHub(logger),
	}

	if config.RateLimit > 0 {
		s.limiter = ratelimit.NewSlidingWindow(ratelimit.SlidingWindowConfig{
			Limit:  config.RateLimit,
			Window: time.Minute,
		})
	}

	router := mux.NewRouter()
	s.routes(router)

	var handler http.Handler = router
	if s.limiter != nil {
		handler = ratelimit.Middleware(ratelimit.MiddlewareConfig{Limiter: s.limiter})(handler)
	}
	if config.Middleware != nil {
		handler = config.Middleware.Handler(handler)
	}
	handler = cors.Default().Handler(handler)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) routes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/entries", s.handleEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", s.handleEntry).Methods(http.MethodGet)
	api.HandleFunc("/namespaces", s.handleNamespaces).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/ws", s.hub.handleWS)
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
}

// Start begins serving and relaying bus events. Blocks until the
// listener fails or Shutdown runs.
func (s *Server) Start() error {
	if s.config.Bus != nil {
		s.hub.relay(s.config.Bus)
	}

	s.logger.Info(context.Background(), "viewer listening",
		logging.String("addr", s.httpSrv.Addr),
	)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.close()
	if s.limiter != nil {
		s.limiter.Close()
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := &types.Query{
		Type:      types.QueryHybrid,
		Namespace: q.Get("namespace"),
		Content:   q.Get("q"),
		Limit:     intQuery(q.Get("limit"), 50),
	}
	if query.Content != "" {
		query.Type = types.QueryKeyword
	}

	results, err := s.config.Service.Query(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, results)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, err := s.config.Service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, entry)
}

func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.config.Service.ListNamespaces(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, namespaces)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sessions, err := s.config.Service.GetRecentSessions(
		r.Context(), q.Get("project"), intQuery(q.Get("limit"), 20))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, sessions)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.config.Service.GetStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := s.config.Service.HealthCheck(r.Context())
	if !result.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	s.writeJSON(w, result)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>memkit viewer</title></head>
<body>
<h1>memkit viewer</h1>
<ul>
<li><a href="/api/entries">entries</a></li>
<li><a href="/api/namespaces">namespaces</a></li>
<li><a href="/api/sessions">sessions</a></li>
<li><a href="/api/stats">stats</a></li>
<li><a href="/api/health">health</a></li>
</ul>
<p>Live events: connect a websocket to <code>/ws</code>.</p>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}
