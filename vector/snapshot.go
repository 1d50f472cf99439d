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


package vector

import (
	"fmt"

	"github.com/poiesic/retrievit/core"
)

// Snapshot is an immutable HNSW index over one generation of the
// corpus. All fields are written during Build or Load and never
// mutated afterward, so a snapshot is safe for unsynchronized
// concurrent searches.
type Snapshot struct {
	version  uint64
	dim      int
	cfg      BuildConfig
	nodes    []node
	entry    int32 // -1 when the graph is empty
	maxLevel int
	skipped  uint64
	byChunk  map[core.ID]uint32
}

// Hit is one broad-search result.
type Hit struct {
	ChunkId    core.ID
	DocumentId core.ID
	// Similarity is cosine similarity in [-1, 1].
	Similarity float64
	// Seq is the chunk's insertion order, carried for stable
	// downstream tie-breaking.
	Seq uint64
}

// Result is the outcome of a broad search against one snapshot.
type Result struct {
	Hits []Hit
	// Partial reports that a status filter reduced the result below
	// the requested k even though the index held more vectors. Callers
	// surface this instead of silently returning fewer hits.
	Partial bool
}

// Version returns the snapshot's generation number.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of indexed vectors.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Dimension returns the embedding dimension, or 0 for an empty index.
func (s *Snapshot) Dimension() int {
	return s.dim
}

// SkippedChunks returns how many chunks were left out of the build for
// lacking a usable embedding. A large value relative to Len is the
// signature of a broken embedding pipeline.
func (s *Snapshot) SkippedChunks() uint64 {
	return s.skipped
}

// Contains reports whether the snapshot indexes the given chunk.
func (s *Snapshot) Contains(id core.ID) bool {
	_, ok := s.byChunk[id]
	return ok
}

// Search returns up to k hits ordered by descending similarity, ties
// broken by chunk insertion order. An empty index yields an empty
// result, not an error. Repeated calls with the same arguments return
// identical results.
//
// When filter is non-empty it is applied after graph traversal; the
// search over-fetches to compensate, and sets Result.Partial when the
// filter still leaves fewer than k hits despite the index holding at
// least k vectors.
func (s *Snapshot) Search(query []float32, k int, filter core.StatusFilter) (*Result, error) {
	if k <= 0 {
		return &Result{}, nil
	}
	if len(s.nodes) == 0 {
		return &Result{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrDimensionMismatch, len(query), s.dim)
	}

	q, ok := normalize(query)
	if !ok {
		// A zero query matches nothing meaningfully; treat it as
		// dimension-valid but searchable only by tie-break. Normalize
		// to the raw vector to keep determinism.
		q = query
	}

	ef := max(s.cfg.EfSearch, k)
	if !filter.Empty() {
		// Over-fetch so post-filtering can still fill k.
		ef = max(ef, min(4*k, len(s.nodes)))
	}

	ep := uint32(s.entry)
	for l := s.maxLevel; l > 0; l-- {
		ep = s.greedyClosest(q, ep, l)
	}
	found := s.searchLayer(q, ep, ef, 0, filter)

	filtered := !filter.Empty() && len(found) < ef && len(found) < len(s.nodes)
	if len(found) > k {
		found = found[:k]
	}

	hits := make([]Hit, len(found))
	for i, f := range found {
		n := &s.nodes[f.index]
		hits[i] = Hit{
			ChunkId:    n.chunkId,
			DocumentId: n.documentId,
			Similarity: float64(f.sim),
			Seq:        n.seq,
		}
	}

	partial := filtered && len(hits) < k && len(s.nodes) >= k
	return &Result{Hits: hits, Partial: partial}, nil
}
