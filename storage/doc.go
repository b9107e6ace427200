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


// Package storage provides the storage abstraction layer for docvault.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion and search pipelines. It allows
// different backends (PostgreSQL with pgvector, in-memory, etc.) to be
// used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: chunk persistence and vector similarity search
//   - EntityRepository: read-only access to the knowledge-graph store
//
// Public constructors in implementation packages return these interfaces
// to prevent accidental coupling to backend specifics:
//
//	repo, err := postgres.NewDocumentRepository(pool)  // returns storage.DocumentRepository
//
// Use in tests with in-memory storage:
//
//	repo := memory.NewDocumentRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
