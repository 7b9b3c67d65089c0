// Copyright 2025 Poiesic Systems
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


// Package storage provides the storage abstraction layer for the run archive.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. The archive records every workflow
// run (topic, generated note, image paths, publish outcome) so past output
// can be browsed without re-running generation.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: transaction support and lifecycle shared by all repositories
//   - RunRepository: operations for archived workflow runs
//
// Records are stored as JSON values under a primary key per record, with a
// BigEndian time-composite secondary index powering recency and date-range
// queries.
//
// # Usage
//
// Create a repository instance backed by BadgerDB:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	runs, err := badger.NewRunRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runs.Close()
//
// Use in tests with in-memory storage:
//
//	runs, backend, err := badger.NewMemoryRepository()
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
