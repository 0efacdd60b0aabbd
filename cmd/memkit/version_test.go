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
	"testing"
)

func TestRootCommandWiring(t *testing.T) {
	want := map[string]bool{
		"context":          false,
		"session-init":     false,
		"observation":      false,
		"summarize":        false,
		"user-message":     false,
		"enrich":           false,
		"serve":            false,
		"migrate-markdown": false,
		"version":          false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, seen := range want {
		if !seen {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionConstants(t *testing.T) {
	if version == "" {
		t.Error("version must be set")
	}
	if buildDate == "" {
		t.Error("buildDate must be set")
	}
}
