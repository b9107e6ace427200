// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested row was not found.
	ErrNotFound = errors.New("row not found")

	// ErrConnectionFailed indicates the pool could not reach the store
	// after exhausting its init retries.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrPoolClosed indicates the connection pool is closed.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrSchemaSetup indicates a fatal failure while applying schema DDL.
	ErrSchemaSetup = errors.New("schema setup failed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")
)
