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


// Package search serves nearest-neighbor queries over stored chunk embeddings.
//
// A Searcher embeds query text with the same ai.Embedder used by the workers
// and asks the vector store for the closest chunks under cosine distance.
// Results are ordered ascending by distance and can be restricted to a set
// of documents. Malformed document IDs in the filter are dropped; a filter
// made only of malformed IDs returns no results rather than widening the
// search to every document.
package search
