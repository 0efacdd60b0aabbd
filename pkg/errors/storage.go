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

// Storage errors
var (
	// ErrNotFound indicates a record was not found in storage.
	ErrNotFound = &Error{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  "record not found in storage",
	}

	// ErrNotInitialized indicates an operation was issued before Initialize.
	ErrNotInitialized = &Error{
		Category: CategoryStorage,
		Code:     "NOT_INITIALIZED",
		Message:  "storage engine not initialized",
	}

	// ErrConflict indicates a (namespace, key) collision on a different id.
	ErrConflict = &Error{
		Category: CategoryConflict,
		Code:     "CONFLICT",
		Message:  "namespace/key pair already bound to a different id",
	}

	// ErrStore wraps an underlying database failure.
	ErrStore = &Error{
		Category: CategoryStorage,
		Code:     "STORE_ERROR",
		Message:  "storage operation failed",
	}

	// ErrStorageConnection indicates the storage connection failed.
	ErrStorageConnection = &Error{
		Category: CategoryStorage,
		Code:     "CONNECTION_ERROR",
		Message:  "storage connection failed",
	}

	// ErrTxFailed indicates a transaction was rolled back.
	ErrTxFailed = &Error{
		Category: CategoryStorage,
		Code:     "TX_FAILED",
		Message:  "transaction rolled back",
	}
)
