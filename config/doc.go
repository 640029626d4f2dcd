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

// Package config loads the YAML configuration file for ragvec.
//
// The file mirrors the settings of each subsystem: storage, queue, worker,
// embedding, cache and notify. Keys missing from the file keep their
// defaults, and a missing file is equivalent to an empty one. The mapping
// helpers convert each section into the option types of the package it
// configures.
package config
