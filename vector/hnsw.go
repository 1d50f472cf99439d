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
	"container/heap"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/poiesic/retrievit/core"
)

// node is one vertex of the HNSW graph. Vectors are stored unit
// normalized so dot product equals cosine similarity.
type node struct {
	chunkId    core.ID
	documentId core.ID
	seq        uint64
	status     core.DocumentStatus
	vector     []float32

	// neighbors[l] lists the node indices linked at level l. Links at
	// level 0 are capped at 2*M, higher levels at M.
	neighbors [][]uint32
}

func (n *node) level() int {
	return len(n.neighbors) - 1
}

// Build constructs an immutable snapshot from the given chunks.
//
// Chunks without an embedding (nil or zero vector) are skipped and
// counted on the snapshot; callers use the count to distinguish a
// sparse index from a healthy one. Chunks with an embedding whose
// dimension disagrees with the first embedded chunk fail the build
// with ErrDimensionMismatch.
//
// Construction is deterministic: chunks are inserted in ascending
// (Seq, Id) order and level assignment draws from a RNG seeded by the
// build config.
func Build(chunks []core.Chunk, version uint64, opts ...BuildOption) (*Snapshot, error) {
	cfg := DefaultBuildConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ordered := make([]core.Chunk, len(chunks))
	copy(ordered, chunks)
	slices.SortFunc(ordered, func(a, b core.Chunk) int {
		if a.Seq != b.Seq {
			if a.Seq < b.Seq {
				return -1
			}
			return 1
		}
		if a.Id != b.Id {
			if a.Id < b.Id {
				return -1
			}
			return 1
		}
		return 0
	})

	s := &Snapshot{
		version: version,
		cfg:     cfg,
		entry:   -1,
		byChunk: make(map[core.ID]uint32, len(ordered)),
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	levelMult := 1.0 / math.Log(float64(cfg.M))

	for i := range ordered {
		c := &ordered[i]
		vec, ok := normalize(c.Vector)
		if !ok {
			s.skipped++
			continue
		}
		if s.dim == 0 {
			s.dim = len(vec)
		} else if len(vec) != s.dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, index has %d",
				ErrDimensionMismatch, c.Id, len(vec), s.dim)
		}
		if _, dup := s.byChunk[c.Id]; dup {
			continue
		}

		level := int(math.Floor(-math.Log(rng.Float64()) * levelMult))
		n := node{
			chunkId:    c.Id,
			documentId: c.DocumentId,
			seq:        c.Seq,
			status:     c.Status,
			vector:     vec,
			neighbors:  make([][]uint32, level+1),
		}
		idx := uint32(len(s.nodes))
		s.nodes = append(s.nodes, n)
		s.byChunk[c.Id] = idx
		s.insert(idx)
	}

	if s.skipped > 0 {
		slog.Warn("snapshot build skipped chunks without embeddings",
			"version", version, "skipped", s.skipped, "indexed", len(s.nodes))
	}
	return s, nil
}

// insert wires the node at idx into the graph.
func (s *Snapshot) insert(idx uint32) {
	n := &s.nodes[idx]
	level := n.level()

	if s.entry < 0 {
		s.entry = int32(idx)
		s.maxLevel = level
		return
	}

	ep := uint32(s.entry)
	// Greedy descent through levels above the new node's top level.
	for l := s.maxLevel; l > level; l-- {
		ep = s.greedyClosest(n.vector, ep, l)
	}

	// From min(level, maxLevel) down to 0, run a full layer search and
	// link the best M candidates bidirectionally.
	for l := min(level, s.maxLevel); l >= 0; l-- {
		found := s.searchLayer(n.vector, ep, s.cfg.EfConstruction, l, core.StatusFilter{})
		m := s.cfg.M
		if l == 0 {
			m = 2 * s.cfg.M
		}
		if len(found) > m {
			found = found[:m]
		}
		for _, f := range found {
			n.neighbors[l] = append(n.neighbors[l], f.index)
			s.link(f.index, idx, l)
		}
		if len(found) > 0 {
			ep = found[0].index
		}
	}

	if level > s.maxLevel {
		s.maxLevel = level
		s.entry = int32(idx)
	}
}

// link adds idx to from's neighbor list at level l, pruning to the
// link budget by similarity when the list overflows.
func (s *Snapshot) link(from, idx uint32, l int) {
	f := &s.nodes[from]
	f.neighbors[l] = append(f.neighbors[l], idx)

	limit := s.cfg.M
	if l == 0 {
		limit = 2 * s.cfg.M
	}
	if len(f.neighbors[l]) <= limit {
		return
	}

	// Keep the most similar links. Ties resolve to the lower node
	// index, which is the earlier insertion.
	slices.SortFunc(f.neighbors[l], func(a, b uint32) int {
		sa := dot(f.vector, s.nodes[a].vector)
		sb := dot(f.vector, s.nodes[b].vector)
		if sa != sb {
			if sa > sb {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		return 1
	})
	f.neighbors[l] = f.neighbors[l][:limit]
}

// greedyClosest walks level l from ep toward the query, stopping at a
// local maximum of similarity.
func (s *Snapshot) greedyClosest(query []float32, ep uint32, l int) uint32 {
	best := ep
	bestSim := dot(query, s.nodes[best].vector)
	for {
		improved := false
		for _, nb := range s.nodes[best].neighbors[l] {
			sim := dot(query, s.nodes[nb].vector)
			if sim > bestSim || (sim == bestSim && nb < best) {
				best, bestSim = nb, sim
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

// scored pairs a node index with its similarity to the query.
type scored struct {
	index uint32
	sim   float32
}

// searchLayer runs the standard HNSW layer search with a candidate
// list of size ef, returning matches ordered by descending similarity
// with ties broken by ascending node index. When filter is non-empty
// only nodes whose status matches are returned, but filtered-out nodes
// still participate in graph traversal.
func (s *Snapshot) searchLayer(query []float32, ep uint32, ef, l int, filter core.StatusFilter) []scored {
	visited := make(map[uint32]bool, ef*4)
	visited[ep] = true

	epSim := dot(query, s.nodes[ep].vector)
	candidates := &maxHeap{{index: ep, sim: epSim}}
	results := &minHeap{{index: ep, sim: epSim}}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(scored)
		worst := (*results)[0]
		if c.sim < worst.sim && results.Len() >= ef {
			break
		}
		for _, nb := range s.nodes[c.index].neighbors[l] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			sim := dot(query, s.nodes[nb].vector)
			if results.Len() < ef || sim > (*results)[0].sim {
				heap.Push(candidates, scored{index: nb, sim: sim})
				heap.Push(results, scored{index: nb, sim: sim})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]scored, 0, results.Len())
	for _, r := range *results {
		if filter.Empty() || filter.Matches(s.nodes[r.index].status) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b scored) int {
		if a.sim != b.sim {
			if a.sim > b.sim {
				return -1
			}
			return 1
		}
		if a.index < b.index {
			return -1
		}
		return 1
	})
	return out
}

// maxHeap pops the highest similarity first. Ties pop the lower node
// index so traversal order is deterministic.
type maxHeap []scored

func (h maxHeap) Len() int { return len(h) }
func (h maxHeap) Less(i, j int) bool {
	if h[i].sim != h[j].sim {
		return h[i].sim > h[j].sim
	}
	return h[i].index < h[j].index
}
func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any) { *h = append(*h, x.(scored)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// minHeap pops the lowest similarity first, keeping the best ef seen.
type minHeap []scored

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].sim != h[j].sim {
		return h[i].sim < h[j].sim
	}
	return h[i].index > h[j].index
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any) { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// dot computes the inner product. Inputs are unit normalized at build
// time, so this is cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize returns a unit-length copy of v, or ok=false when v is
// empty or has zero magnitude.
func normalize(v []float32) ([]float32, bool) {
	if len(v) == 0 {
		return nil, false
	}
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return nil, false
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out, true
}
