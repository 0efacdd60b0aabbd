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
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pkg/events"
)

// wsEvent is the JSON frame sent to websocket clients.
type wsEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// wsHub fans bus events out to connected websocket clients.
type wsHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	logger   logging.Logger
	upgrader websocket.Upgrader
	sub      events.Subscriber
	bus      *events.Bus
	done     chan struct{}
	closed   bool
}

func newWSHub(logger logging.Logger) *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
		upgrader: websocket.Upgrader{
			// The viewer binds to localhost; cross-origin pages may
			// still open sockets to it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// relay subscribes to the bus and broadcasts every event.
func (h *wsHub) relay(bus *events.Bus) {
	h.bus = bus
	h.sub = bus.Subscribe()

	go func() {
		for {
			select {
			case ev, ok := <-h.sub:
				if !ok {
					return
				}
				h.broadcast(wsEvent{
					Type:      string(ev.Type),
					Timestamp: ev.Timestamp,
					Payload:   ev.Payload,
				})
			case <-h.done:
				return
			}
		}
	}()
}

func (h *wsHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logging.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = true
	h.mu.Unlock()

	// Reader loop: clients send nothing meaningful, but reading
	// detects disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *wsHub) broadcast(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *wsHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *wsHub) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.done)
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.mu.Unlock()

	if h.bus != nil && h.sub != nil {
		h.bus.Unsubscribe(h.sub)
	}
}
