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

package types

import (
	"time"
)

// MemoryType classifies an entry by the kind of knowledge it holds.
type MemoryType string

const (
	// MemorySemantic is stable knowledge: decisions, patterns, facts.
	MemorySemantic MemoryType = "semantic"
	// MemoryEpisodic is time-bound knowledge: events, observations.
	MemoryEpisodic MemoryType = "episodic"
	// MemoryProcedural is how-to knowledge: commands, workflows.
	MemoryProcedural MemoryType = "procedural"
)

// IsValid checks if the memory type is one of the known kinds.
func (t MemoryType) IsValid() bool {
	return t == MemorySemantic || t == MemoryEpisodic || t == MemoryProcedural
}

// AccessLevel tags an entry with its visibility scope.
type AccessLevel string

const (
	// AccessProject scopes an entry to the current project.
	AccessProject AccessLevel = "project"
	// AccessSession scopes an entry to a single session.
	AccessSession AccessLevel = "session"
	// AccessGlobal marks an entry visible across projects.
	AccessGlobal AccessLevel = "global"
)

// MaxKeyLength is the maximum allowed length of an entry key.
const MaxKeyLength = 500

// Entry is the primary record stored by the engine.
type Entry struct {
	// ID is the globally unique identifier.
	ID string `json:"id"`

	// Key is the lookup key, unique within a namespace. Max 500 chars.
	Key string `json:"key"`

	// Content is the free-form body of the entry.
	Content string `json:"content"`

	// Type classifies the entry (semantic, episodic, procedural).
	Type MemoryType `json:"type"`

	// Namespace partitions entries; (Namespace, Key) is unique.
	Namespace string `json:"namespace"`

	// Tags is an ordered set of labels, order preserved on write.
	Tags []string `json:"tags,omitempty"`

	// Metadata is an open-ended mapping of string to JSON value.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Embedding is an optional dense vector of 32-bit floats.
	Embedding []float32 `json:"embedding,omitempty"`

	// AccessLevel tags the entry's visibility scope.
	AccessLevel AccessLevel `json:"accessLevel,omitempty"`

	// CreatedAt is the creation time in epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the last mutation time in epoch milliseconds.
	UpdatedAt int64 `json:"updatedAt"`

	// LastAccessedAt is the last read time in epoch milliseconds.
	LastAccessedAt int64 `json:"lastAccessedAt"`

	// Version starts at 1 and increments on every mutating update.
	Version int `json:"version"`

	// AccessCount starts at 0 and increments on every read.
	AccessCount int `json:"accessCount"`

	// References is an ordered list of ids of other entries. Cycles are
	// permitted; traversal is by lookup through storage.
	References []string `json:"references,omitempty"`
}

// EntryPatch is a partial update applied to an entry. Nil fields are
// left unchanged.
type EntryPatch struct {
	Content     *string                `json:"content,omitempty"`
	Type        *MemoryType            `json:"type,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Embedding   []float32              `json:"embedding,omitempty"`
	AccessLevel *AccessLevel           `json:"accessLevel,omitempty"`
	References  []string               `json:"references,omitempty"`
}

// Clone returns a deep copy of the entry. Cached entries are cloned on
// read so callers cannot mutate shared state.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}

	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.References != nil {
		c.References = append([]string(nil), e.References...)
	}
	if e.Embedding != nil {
		c.Embedding = append([]float32(nil), e.Embedding...)
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
