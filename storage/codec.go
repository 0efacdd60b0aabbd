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

package storage

import (
	"encoding/json"
	"math"
)

// encodeEmbedding packs a float32 vector into a little-endian byte
// blob, 4 bytes per component. Nil vectors encode as nil.
func encodeEmbedding(vec []float32) []byte {
	if vec == nil {
		return nil
	}
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		bits := math.Float32bits(v)
		blob[i*4] = byte(bits)
		blob[i*4+1] = byte(bits >> 8)
		blob[i*4+2] = byte(bits >> 16)
		blob[i*4+3] = byte(bits >> 24)
	}
	return blob
}

// decodeEmbedding unpacks a little-endian byte blob into a float32
// vector. Empty blobs decode as nil.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := uint32(blob[i*4]) |
			uint32(blob[i*4+1])<<8 |
			uint32(blob[i*4+2])<<16 |
			uint32(blob[i*4+3])<<24
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}

// encodeJSON serializes list and map columns, falling back to the
// given empty literal on nil or failure.
func encodeJSON(v interface{}, empty string) string {
	if v == nil {
		return empty
	}
	data, err := json.Marshal(v)
	if err != nil {
		return empty
	}
	return string(data)
}

func decodeStringList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}

func decodeMetadata(data string) map[string]interface{} {
	if data == "" || data == "{}" {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}
