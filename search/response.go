package search

import "github.com/poiesic/retrievit/core"

// ReasonCode explains an empty (or failed) response. An empty hit list
// always carries a reason; "legitimately nothing relevant" and "the
// pipeline malfunctioned" are never conflated.
type ReasonCode string

const (
	// ReasonNone accompanies a non-empty hit list.
	ReasonNone ReasonCode = ""
	// ReasonNoMatch means the broad search legitimately found nothing.
	ReasonNoMatch ReasonCode = "NoMatch"
	// ReasonLowConfidence means candidates existed but none passed the
	// gate threshold. A valid outcome, not an error.
	ReasonLowConfidence ReasonCode = "LowConfidence"
	// ReasonIndexUnavailable means no snapshot was servable. The query
	// failed; retry once a snapshot exists.
	ReasonIndexUnavailable ReasonCode = "IndexUnavailable"
	// ReasonAnomalousZeroScores means every broad candidate scored
	// exactly zero. That pattern indicates a pipeline malfunction
	// (for example an empty-embedding path), not an empty corpus, and
	// is reported distinctly from NoMatch.
	ReasonAnomalousZeroScores ReasonCode = "AnomalousZeroScores"
)

// Hit is one ranked answer.
type Hit struct {
	ChunkId              core.ID
	DocumentId           core.ID
	Excerpt              string
	HierarchyPath        []string
	Similarity           float64
	RawConfidence        float64
	CalibratedConfidence float64
	// Factors is the raw factor breakdown behind RawConfidence.
	Factors []core.Factor
}

// Response is the outcome of one query evaluation.
type Response struct {
	QueryId string
	Hits    []Hit
	Reason  ReasonCode
	// Partial reports that metadata filters reduced the broad result
	// below the requested breadth.
	Partial bool
	// SnapshotVersion and MappingVersion record which immutable
	// versions the query bound to.
	SnapshotVersion uint64
	MappingVersion  uint64
	// FinalState is StateDone for completed queries, StateFailed for
	// failed ones.
	FinalState State
}
