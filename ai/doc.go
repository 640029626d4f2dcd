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


// Package ai provides the embedding model abstraction used by ragvec.
//
// The embedding model is a remote text-to-vector function. This package
// defines the contract the worker pool and search depend on, so the pipeline
// can be tested without a live service.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test double for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// openai.NewEmbedder returns the ai.Embedder interface. mock.NewMockEmbedder
// returns the concrete type so tests can inject behavior and inspect calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := embedder.EmbedBatch(ctx, []string{"first chunk", "second chunk"})
package ai
