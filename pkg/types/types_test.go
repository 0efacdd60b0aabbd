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
	"strings"
	"testing"

	"github.com/sage-x-project/memkit/pkg/errors"
)

func TestMemoryType_IsValid(t *testing.T) {
	tests := []struct {
		typ  MemoryType
		want bool
	}{
		{MemorySemantic, true},
		{MemoryEpisodic, true},
		{MemoryProcedural, true},
		{MemoryType("declarative"), false},
		{MemoryType(""), false},
	}

	for _, tt := range tests {
		if got := tt.typ.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestEntry_Clone(t *testing.T) {
	e := &Entry{
		ID:        "mem-1",
		Key:       "auth",
		Content:   "JWT + refresh",
		Namespace: "patterns",
		Tags:      []string{"auth", "jwt"},
		Metadata:  map[string]interface{}{"source": "review"},
		Embedding: []float32{0.1, 0.2},
		Version:   1,
	}

	c := e.Clone()
	c.Tags[0] = "changed"
	c.Metadata["source"] = "changed"
	c.Embedding[0] = 9

	if e.Tags[0] != "auth" {
		t.Error("Clone should not share tags")
	}
	if e.Metadata["source"] != "review" {
		t.Error("Clone should not share metadata")
	}
	if e.Embedding[0] != 0.1 {
		t.Error("Clone should not share embedding")
	}
}

func TestEntry_CloneNil(t *testing.T) {
	var e *Entry
	if e.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestEntry_HasTag(t *testing.T) {
	e := &Entry{Tags: []string{"auth", "jwt"}}

	if !e.HasTag("jwt") {
		t.Error("HasTag(jwt) = false, want true")
	}
	if e.HasTag("oauth") {
		t.Error("HasTag(oauth) = true, want false")
	}
}

func TestValidateEntry(t *testing.T) {
	valid := &Entry{
		Key:       "auth",
		Namespace: "patterns",
		Content:   "JWT + refresh",
		Type:      MemorySemantic,
	}
	if err := ValidateEntry(valid); err != nil {
		t.Errorf("ValidateEntry(valid) = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Entry)
		wantErr *errors.Error
	}{
		{"empty key", func(e *Entry) { e.Key = "" }, errors.ErrEmptyKey},
		{"key too long", func(e *Entry) { e.Key = strings.Repeat("k", MaxKeyLength+1) }, errors.ErrKeyTooLong},
		{"empty namespace", func(e *Entry) { e.Namespace = "" }, errors.ErrEmptyNamespace},
		{"empty content", func(e *Entry) { e.Content = "" }, errors.ErrEmptyContent},
		{"bad type", func(e *Entry) { e.Type = "declarative" }, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := *valid
			tt.mutate(&e)
			if err := ValidateEntry(&e); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateEntry(nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ValidateEntry(nil) = %v, want ErrInvalidInput", err)
	}
}

func TestQuery_EffectiveLimit(t *testing.T) {
	q := &Query{}
	if got := q.EffectiveLimit(); got != DefaultQueryLimit {
		t.Errorf("EffectiveLimit() = %d, want %d", got, DefaultQueryLimit)
	}

	q.Limit = 25
	if got := q.EffectiveLimit(); got != 25 {
		t.Errorf("EffectiveLimit() = %d, want 25", got)
	}
}

func TestGenerateIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateEntryID()
		if !strings.HasPrefix(id, "mem-") {
			t.Fatalf("GenerateEntryID() = %q, want mem- prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	if !strings.HasPrefix(GenerateObservationID(), "obs-") {
		t.Error("GenerateObservationID should have obs- prefix")
	}
	if !strings.HasPrefix(GenerateSessionID(), "session-") {
		t.Error("GenerateSessionID should have session- prefix")
	}
}
