package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus identifies the lifecycle state of a source document.
// The status drives the authority factor during confidence scoring:
// active documents outrank drafts, drafts outrank archived ones.
type DocumentStatus int

const (
	// StatusActive represents a published, authoritative document.
	StatusActive DocumentStatus = iota + 1
	// StatusDraft represents a document not yet published.
	StatusDraft
	// StatusArchived represents a superseded document kept for reference.
	StatusArchived
)

// Document represents an immutable source artifact.
// The indexer owns a document until it is chunked; afterwards chunks
// reference it by DocumentId but do not own it.
type Document struct {
	Id         ID
	Title      string
	Size       int64
	Format     string
	Status     DocumentStatus
	IngestedAt time.Time
	InsertedAt time.Time // When the record was inserted into the database
	UpdatedAt  time.Time // When the record was last updated
}

// Chunk is the unit of retrieval. Every chunk belongs to exactly one
// document and carries a non-empty hierarchy path describing its
// position in the document's section structure.
type Chunk struct {
	Id            ID
	DocumentId    ID
	Text          string
	Vector        []float32 // Embedding vector for semantic search (populated by processors)
	HierarchyPath []string  // Ordered section titles from document root to this chunk
	Page          int
	StartOffset   int
	EndOffset     int
	Status        DocumentStatus // Denormalized from the owning document for filtering
	Seq           uint64         // Insertion order, used for stable tie-breaking
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// PathKey returns the hierarchy path joined with "/" separators.
// This is used for generating deterministic chunk IDs.
func (c *Chunk) PathKey() string {
	key := ""
	for i, title := range c.HierarchyPath {
		if i > 0 {
			key += "/"
		}
		key += title
	}
	return key
}

// StatusFilter restricts a query to chunks from documents in the given
// statuses. An empty filter matches everything.
type StatusFilter struct {
	Statuses []DocumentStatus
}

// Matches reports whether the chunk status passes the filter.
func (f StatusFilter) Matches(status DocumentStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Empty reports whether the filter matches everything.
func (f StatusFilter) Empty() bool {
	return len(f.Statuses) == 0
}

// Query is an ephemeral request against one index snapshot and one
// calibration mapping version.
type Query struct {
	Id     string // Request identifier, assigned by the orchestrator
	Text   string
	Vector []float32
	Filter StatusFilter
}

// FactorKind identifies one independently-computed confidence factor.
type FactorKind string

const (
	// FactorSemantic is the rescaled vector similarity from the broad search.
	FactorSemantic FactorKind = "semantic"
	// FactorAuthority is derived from the owning document's status.
	FactorAuthority FactorKind = "authority"
	// FactorRelevance is lexical overlap between query and chunk text.
	FactorRelevance FactorKind = "relevance"
	// FactorStructure boosts chunks whose hierarchy path matches query terms.
	FactorStructure FactorKind = "structure"
	// FactorModel is an optional self-reported confidence from a generation model.
	FactorModel FactorKind = "model"
)

// Factor is one present entry in a candidate's tagged factor list.
// Absent optional factors are simply not listed; the scorer
// renormalizes weights over the factors that are present.
type Factor struct {
	Kind   FactorKind
	Value  float64
	Weight float64
}

// Candidate is produced per query per chunk during a single query
// evaluation and discarded after the response unless persisted for
// calibration feedback.
type Candidate struct {
	ChunkId              ID
	DocumentId           ID
	Similarity           float32
	RawConfidence        float64
	CalibratedConfidence float64
	Rank                 int
	Factors              []Factor
}

// CalibrationRecord pairs a predicted confidence with an observed
// outcome. Records are append-only and aggregated periodically into a
// calibration mapping.
type CalibrationRecord struct {
	Id         ID
	QueryId    string
	ChunkId    ID
	Predicted  float64
	Correct    bool
	RecordedAt time.Time
}
