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

package errors

// Vector index errors
var (
	// ErrDimensionMismatch indicates a vector length does not match the
	// index dimension.
	ErrDimensionMismatch = &Error{
		Category: CategoryIndex,
		Code:     "DIMENSION_MISMATCH",
		Message:  "vector dimension does not match index configuration",
	}

	// ErrIndexFull indicates an insertion beyond maxElements.
	ErrIndexFull = &Error{
		Category: CategoryIndex,
		Code:     "INDEX_FULL",
		Message:  "index has reached its maximum capacity",
	}

	// ErrPointNotFound indicates the requested point is not in the index.
	ErrPointNotFound = &Error{
		Category: CategoryIndex,
		Code:     "POINT_NOT_FOUND",
		Message:  "point not found in index",
	}

	// ErrEmptyIndex indicates a search against an index with no points.
	ErrEmptyIndex = &Error{
		Category: CategoryIndex,
		Code:     "EMPTY_INDEX",
		Message:  "index contains no points",
	}
)
