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

// Package config provides configuration management for memkit.
//
// Configuration can be loaded from YAML or JSON files, with environment
// variable overrides applied on top:
//
//	cfg, err := config.LoadFromFile("memkit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variables use the MEMKIT_ prefix:
//
//	MEMKIT_STORE_BASE_DIR=/path/to/project
//	MEMKIT_INDEX_DIMENSIONS=768
//	MEMKIT_LLM_PROVIDER=openai
//
// When no file is present, LoadOrDefault falls back to DefaultConfig
// plus the environment overrides. Every load path ends in Validate.
package config
