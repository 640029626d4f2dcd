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


// Package storage provides the storage abstraction layer for ragvec.
//
// This package defines repository interfaces that decouple the embedding
// pipeline from the storage engine. The BadgerDB implementation lives in
// storage/badger; tests use its in-memory mode.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ChunkRepository: chunk registry, the source of truth for chunk counts
//   - VectorRepository: one embedding per chunk plus cosine nearest-neighbor search
//   - CacheRepository: embeddings keyed by (model, content hash)
//   - JobRepository: durable embedding jobs for the queue broker
//   - StatusRepository: latest processing status per document
//
// # Usage
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Vector upserts are
// last-writer-wins per chunk ID.
package storage
