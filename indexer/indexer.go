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


package indexer

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/retrievit/core"
)

// ExtractedDocument is the input handed over by the external
// document-extraction collaborator: plain text with markdown-style
// headings marking the section hierarchy.
type ExtractedDocument struct {
	Title  string
	Format string
	Status core.DocumentStatus
	Text   string
}

// Indexer slices extracted documents into bounded, hierarchy-tagged
// chunks.
type Indexer struct {
	maxChunkLen int
	overlap     int
	logger      *slog.Logger
}

// Option is a functional option for configuring an Indexer.
type Option func(*Indexer)

// WithMaxChunkLen bounds chunk text length in bytes.
func WithMaxChunkLen(n int) Option {
	return func(ix *Indexer) {
		ix.maxChunkLen = n
	}
}

// WithOverlap sets how many bytes consecutive chunks of one section
// share. Clamped below maxChunkLen/2 at construction.
func WithOverlap(n int) Option {
	return func(ix *Indexer) {
		ix.overlap = n
	}
}

// New creates an Indexer. Defaults: chunk window of
// core.DefaultMaxChunkTextLen bytes with 200 bytes of overlap.
func New(opts ...Option) *Indexer {
	ix := &Indexer{
		maxChunkLen: core.DefaultMaxChunkTextLen,
		overlap:     200,
		logger:      slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.maxChunkLen < 1 {
		ix.maxChunkLen = core.DefaultMaxChunkTextLen
	}
	if ix.overlap < 0 {
		ix.overlap = 0
	}
	if ix.overlap > ix.maxChunkLen/2 {
		ix.overlap = ix.maxChunkLen / 2
	}
	return ix
}

// IndexDocument produces the ordered chunk sequence for one document.
// Chunk Ids, Seq and Vector are left unset; the chunk repository
// assigns identity and ingestion fills embeddings.
func (ix *Indexer) IndexDocument(doc ExtractedDocument) ([]core.Chunk, error) {
	if strings.TrimSpace(doc.Title) == "" {
		return nil, &core.StructureExtractionError{
			Title:  doc.Title,
			Reason: "document has no title",
		}
	}
	if !utf8.ValidString(doc.Text) {
		return nil, &core.StructureExtractionError{
			Title:  doc.Title,
			Reason: "document text is not valid UTF-8",
		}
	}

	sections := splitSections(doc.Title, doc.Text)

	var chunks []core.Chunk
	for _, sec := range sections {
		for _, piece := range ix.chunkSection(sec) {
			chunks = append(chunks, core.Chunk{
				Text:          piece.text,
				HierarchyPath: sec.path,
				Page:          sec.page,
				StartOffset:   piece.start,
				EndOffset:     piece.end,
				Status:        doc.Status,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, &core.StructureExtractionError{
			Title:  doc.Title,
			Reason: "document has no extractable content",
		}
	}

	ix.logger.Debug("indexed document",
		"title", doc.Title, "sections", len(sections), "chunks", len(chunks))
	return chunks, nil
}

// BatchResult reports the outcome of indexing a batch of documents.
type BatchResult struct {
	// Chunks holds the indexed chunks per input position. Failed
	// documents have a nil entry.
	Chunks [][]core.Chunk
	// Failures lists the documents that could not be indexed. Their
	// failures never abort the batch.
	Failures []*core.StructureExtractionError
}

// IndexBatch indexes every document in the batch, skipping and
// reporting the ones that fail.
func (ix *Indexer) IndexBatch(docs []ExtractedDocument) BatchResult {
	result := BatchResult{Chunks: make([][]core.Chunk, len(docs))}
	for i, doc := range docs {
		chunks, err := ix.IndexDocument(doc)
		if err != nil {
			var extractErr *core.StructureExtractionError
			if !errors.As(err, &extractErr) {
				extractErr = &core.StructureExtractionError{
					Title:  doc.Title,
					Reason: "unexpected indexing failure",
					Err:    err,
				}
			}
			ix.logger.Warn("skipping document after extraction failure",
				"title", doc.Title, "reason", extractErr.Reason)
			result.Failures = append(result.Failures, extractErr)
			continue
		}
		result.Chunks[i] = chunks
	}
	return result
}
