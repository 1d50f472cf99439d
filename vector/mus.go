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

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/retrievit/core"
)

// Snapshot payload format. Field order is part of the storage format;
// append new fields at the end only.

var (
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
	uint32SliceMUS  = ord.NewSliceSer[uint32](varint.Uint32)
)

// Marshal serializes the snapshot into a binary payload suitable for
// the snapshot store.
func (s *Snapshot) Marshal() []byte {
	bs := make([]byte, s.size())
	n := varint.Uint64.Marshal(s.version, bs)
	n += varint.Int.Marshal(s.dim, bs[n:])
	n += varint.Int.Marshal(s.cfg.M, bs[n:])
	n += varint.Int.Marshal(s.cfg.EfConstruction, bs[n:])
	n += varint.Int.Marshal(s.cfg.EfSearch, bs[n:])
	n += varint.Int64.Marshal(s.cfg.Seed, bs[n:])
	n += varint.Int32.Marshal(s.entry, bs[n:])
	n += varint.Int.Marshal(s.maxLevel, bs[n:])
	n += varint.Uint64.Marshal(s.skipped, bs[n:])
	n += varint.Int.Marshal(len(s.nodes), bs[n:])
	for i := range s.nodes {
		n += marshalNode(&s.nodes[i], bs[n:])
	}
	return bs[:n]
}

// Load reconstructs a snapshot from a persisted payload. A snapshot
// loaded from the payload of another snapshot answers every query
// identically to the original.
func Load(bs []byte) (*Snapshot, error) {
	s, err := unmarshalSnapshot(bs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return s, nil
}

func (s *Snapshot) size() (sz int) {
	sz = varint.Uint64.Size(s.version)
	sz += varint.Int.Size(s.dim)
	sz += varint.Int.Size(s.cfg.M)
	sz += varint.Int.Size(s.cfg.EfConstruction)
	sz += varint.Int.Size(s.cfg.EfSearch)
	sz += varint.Int64.Size(s.cfg.Seed)
	sz += varint.Int32.Size(s.entry)
	sz += varint.Int.Size(s.maxLevel)
	sz += varint.Uint64.Size(s.skipped)
	sz += varint.Int.Size(len(s.nodes))
	for i := range s.nodes {
		sz += sizeNode(&s.nodes[i])
	}
	return sz
}

func marshalNode(nd *node, bs []byte) (n int) {
	n = core.IDMUS.Marshal(nd.chunkId, bs)
	n += core.IDMUS.Marshal(nd.documentId, bs[n:])
	n += varint.Uint64.Marshal(nd.seq, bs[n:])
	n += varint.Int.Marshal(int(nd.status), bs[n:])
	n += float32SliceMUS.Marshal(nd.vector, bs[n:])
	n += varint.Int.Marshal(len(nd.neighbors), bs[n:])
	for _, level := range nd.neighbors {
		n += uint32SliceMUS.Marshal(level, bs[n:])
	}
	return n
}

func sizeNode(nd *node) (sz int) {
	sz = core.IDMUS.Size(nd.chunkId)
	sz += core.IDMUS.Size(nd.documentId)
	sz += varint.Uint64.Size(nd.seq)
	sz += varint.Int.Size(int(nd.status))
	sz += float32SliceMUS.Size(nd.vector)
	sz += varint.Int.Size(len(nd.neighbors))
	for _, level := range nd.neighbors {
		sz += uint32SliceMUS.Size(level)
	}
	return sz
}

func unmarshalSnapshot(bs []byte) (*Snapshot, error) {
	s := &Snapshot{}
	var n, n1 int
	var err error

	if s.version, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return nil, err
	}
	if s.dim, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.cfg.M, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.cfg.EfConstruction, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.cfg.EfSearch, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.cfg.Seed, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.entry, n1, err = varint.Int32.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.maxLevel, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if s.skipped, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1

	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, err
	}
	n += n1
	if count < 0 {
		return nil, fmt.Errorf("negative node count %d", count)
	}

	s.nodes = make([]node, count)
	s.byChunk = make(map[core.ID]uint32, count)
	for i := 0; i < count; i++ {
		if n1, err = unmarshalNode(&s.nodes[i], bs[n:]); err != nil {
			return nil, err
		}
		n += n1
		s.byChunk[s.nodes[i].chunkId] = uint32(i)
	}

	if s.entry >= int32(count) {
		return nil, fmt.Errorf("entry point %d out of range for %d nodes", s.entry, count)
	}
	return s, nil
}

func unmarshalNode(nd *node, bs []byte) (n int, err error) {
	var n1 int
	if nd.chunkId, n, err = core.IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if nd.documentId, n1, err = core.IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if nd.seq, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	nd.status = core.DocumentStatus(status)
	if nd.vector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var levels int
	if levels, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if levels < 0 {
		return n, fmt.Errorf("negative level count %d", levels)
	}
	nd.neighbors = make([][]uint32, levels)
	for l := 0; l < levels; l++ {
		if nd.neighbors[l], n1, err = uint32SliceMUS.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	return n, nil
}
