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


// Package vector provides approximate nearest neighbor search over
// chunk embeddings.
//
// The package is built around immutable Snapshots. A Snapshot is an
// HNSW graph constructed once from a set of chunks and never mutated
// afterward; queries search a snapshot concurrently without locking.
// Index replacement is a full rebuild: a new snapshot is constructed
// in the background, persisted, and published through the Manager's
// atomic pointer swap while the old snapshot keeps serving in-flight
// queries. Retired snapshots are reclaimed by the garbage collector
// once no query holds a reference.
//
// Construction is deterministic: the graph's level assignments come
// from a seeded RNG carried in the build config, and chunks are
// inserted in insertion-sequence order, so two builds over the same
// chunks produce identical graphs and identical search results.
//
// Snapshots serialize to a binary payload for persistence in the
// snapshot store. A loaded snapshot answers queries identically to
// the snapshot it was serialized from.
package vector
