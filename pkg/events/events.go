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

package events

import (
	"sync"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Storage events
	EventEntryStored  EventType = "entry:stored"
	EventEntryUpdated EventType = "entry:updated"
	EventEntryDeleted EventType = "entry:deleted"
	EventEntriesBulk  EventType = "entries:bulk"
	EventFTSRebuilt   EventType = "fts:rebuilt"

	// Cache events
	EventCacheHit    EventType = "cache:hit"
	EventCacheMiss   EventType = "cache:miss"
	EventCacheSet    EventType = "cache:set"
	EventCacheDelete EventType = "cache:delete"
	EventCacheEvict  EventType = "cache:evict"
	EventL1Hit       EventType = "l1:hit"
	EventL2Hit       EventType = "l2:hit"
	EventL2Write     EventType = "l2:write"

	// Index events
	EventPointAdded   EventType = "point:added"
	EventPointRemoved EventType = "point:removed"
	EventIndexRebuilt EventType = "index:rebuilt"

	// Session events
	EventSessionStarted      EventType = "session:started"
	EventSessionEnded        EventType = "session:ended"
	EventObservationRecorded EventType = "observation:recorded"
)

// Event is one published event. Payload carries the strongly typed
// event-specific data; subscribers type-assert on it.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

// Handler is a callback invoked from the broadcast loop. Handlers must
// not block.
type Handler func(Event)

// Bus manages event subscriptions and distribution.
type Bus struct {
	mu       sync.RWMutex
	subs     map[Subscriber][]EventType
	handlers map[EventType][]Handler
	eventCh  chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewBus creates a new event bus. Start must be called before events are
// delivered.
func NewBus() *Bus {
	return &Bus{
		subs:     make(map[Subscriber][]EventType),
		handlers: make(map[EventType][]Handler),
		eventCh:  make(chan Event, 100),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the broadcast loop.
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	go b.run()
}

// Stop stops the broadcast loop. Pending events are dropped.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// Subscribe creates a new subscription for the given event types. An
// empty type list subscribes to all events.
func (b *Bus) Subscribe(eventTypes ...EventType) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subs[sub] = eventTypes
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub)
	}
}

// SubscribeFunc registers a callback for the given event type.
func (b *Bus) SubscribeFunc(eventType EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish publishes an event. Publish never blocks the caller: when the
// bus buffer is full or the bus is stopped the event is dropped.
func (b *Bus) Publish(eventType EventType, payload interface{}) {
	ev := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	select {
	case b.eventCh <- ev:
	case <-b.stopCh:
	default:
	}
}

// SubscriberCount returns the number of active channel subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) run() {
	for {
		select {
		case ev := <-b.eventCh:
			b.broadcast(ev)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub, eventTypes := range b.subs {
		if !matches(eventTypes, ev.Type) {
			continue
		}
		select {
		case sub <- ev:
		default:
			// Subscriber buffer full, skip
		}
	}

	for _, h := range b.handlers[ev.Type] {
		h(ev)
	}
}

func matches(eventTypes []EventType, t EventType) bool {
	if len(eventTypes) == 0 {
		return true
	}
	for _, et := range eventTypes {
		if et == t {
			return true
		}
	}
	return false
}
