package storage

import (
	"testing"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	for _, id := range []core.ID{0, 42, 18446744073709551615, core.IDFromContent("test content")} {
		data := MarshalID(id)
		require.NotEmpty(t, data)

		decoded, err := UnmarshalID(data)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}

	_, err := UnmarshalID(nil)
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.Document{
		Id:         core.IDFromContent("Travel Policy"),
		Title:      "Travel Policy",
		Size:       4096,
		Format:     "pdf",
		Status:     core.StatusActive,
		IngestedAt: now,
		InsertedAt: now,
		UpdatedAt:  now,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc.Id, decoded.Id)
	assert.Equal(t, doc.Title, decoded.Title)
	assert.Equal(t, doc.Status, decoded.Status)
	assert.True(t, doc.IngestedAt.Equal(decoded.IngestedAt))

	_, err = UnmarshalDocument([]byte{0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := &core.Chunk{
		Id:            core.ID(7),
		DocumentId:    core.ID(1),
		Text:          "Submit receipts within 30 days. 世界 🌍",
		Vector:        []float32{0.1, 0.2, 0.3},
		HierarchyPath: []string{"Travel Policy", "Reimbursement"},
		Page:          3,
		StartOffset:   120,
		EndOffset:     180,
		Status:        core.StatusDraft,
		Seq:           9,
		InsertedAt:    now,
		UpdatedAt:     now,
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk.Id, decoded.Id)
	assert.Equal(t, chunk.Text, decoded.Text)
	assert.Equal(t, chunk.Vector, decoded.Vector)
	assert.Equal(t, chunk.HierarchyPath, decoded.HierarchyPath)
	assert.Equal(t, chunk.Seq, decoded.Seq)
	assert.Equal(t, chunk.StartOffset, decoded.StartOffset)

	_, err = UnmarshalChunk([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestMarshalUnmarshalCalibrationRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.CalibrationRecord{
		Id:         core.ID(11),
		QueryId:    "ad0f2b6c",
		ChunkId:    core.ID(7),
		Predicted:  0.83,
		Correct:    true,
		RecordedAt: now,
	}

	decoded, err := UnmarshalCalibrationRecord(MarshalCalibrationRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record.Id, decoded.Id)
	assert.Equal(t, record.QueryId, decoded.QueryId)
	assert.Equal(t, record.Predicted, decoded.Predicted)
	assert.Equal(t, record.Correct, decoded.Correct)
	assert.True(t, record.RecordedAt.Equal(decoded.RecordedAt))

	_, err = UnmarshalCalibrationRecord(nil)
	assert.Error(t, err)
}
