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


// Package indexer turns extracted documents into ordered, hierarchy
// tagged chunks.
//
// A document's markdown-style headings define a section tree; every
// chunk carries the path from the document title down to its section.
// Chunk text is bounded by a configurable window with overlap between
// consecutive chunks of the same section, and a chunk never straddles
// a section boundary.
//
// Extraction failures are document-level: a malformed document yields
// a *core.StructureExtractionError and the rest of the batch proceeds.
// Callers flag the failed document for the operator instead of
// aborting corpus-wide indexing.
package indexer
