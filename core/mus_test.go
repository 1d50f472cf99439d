package core

import (
	"testing"
	"time"
)

func TestChunkMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := Chunk{
		Id:            IDFromContent("chunk"),
		DocumentId:    IDFromContent("doc"),
		Text:          "Visitors must sign in at the front desk.",
		Vector:        []float32{0.1, -0.5, 0.75},
		HierarchyPath: []string{"Facilities Policy", "Visitors"},
		Page:          3,
		StartOffset:   120,
		EndOffset:     162,
		Status:        StatusActive,
		Seq:           42,
		InsertedAt:    now,
		UpdatedAt:     now,
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(buf))
	}

	got, n, err := ChunkMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if n != len(buf) {
		t.Errorf("Unmarshal consumed %d bytes, want %d", n, len(buf))
	}

	if got.Id != chunk.Id || got.DocumentId != chunk.DocumentId || got.Text != chunk.Text {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Vector) != len(chunk.Vector) {
		t.Fatalf("vector length = %d, want %d", len(got.Vector), len(chunk.Vector))
	}
	for i := range chunk.Vector {
		if got.Vector[i] != chunk.Vector[i] {
			t.Errorf("vector[%d] = %f, want %f", i, got.Vector[i], chunk.Vector[i])
		}
	}
	if got.PathKey() != chunk.PathKey() {
		t.Errorf("hierarchy path = %v, want %v", got.HierarchyPath, chunk.HierarchyPath)
	}
	if !got.InsertedAt.Equal(chunk.InsertedAt) {
		t.Errorf("InsertedAt = %v, want %v", got.InsertedAt, chunk.InsertedAt)
	}
	if got.Seq != chunk.Seq || got.Status != chunk.Status {
		t.Errorf("Seq/Status mismatch: got %+v", got)
	}
}

func TestCalibrationRecordMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := CalibrationRecord{
		Id:         9,
		QueryId:    "1b2e0b9a-query",
		ChunkId:    IDFromContent("chunk"),
		Predicted:  0.83,
		Correct:    true,
		RecordedAt: now,
	}

	buf := make([]byte, CalibrationRecordMUS.Size(record))
	CalibrationRecordMUS.Marshal(record, buf)

	got, _, err := CalibrationRecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Id != record.Id || got.QueryId != record.QueryId || got.ChunkId != record.ChunkId {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, record)
	}
	if got.Predicted != record.Predicted || got.Correct != record.Correct {
		t.Errorf("outcome mismatch: got %+v, want %+v", got, record)
	}
	if !got.RecordedAt.Equal(record.RecordedAt) {
		t.Errorf("RecordedAt = %v, want %v", got.RecordedAt, record.RecordedAt)
	}
}
