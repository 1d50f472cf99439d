package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:         1,
				Title:      "Security Policy",
				Status:     StatusActive,
				IngestedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &Document{
				Id:         1,
				Status:     StatusActive,
				IngestedAt: validTime,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "unknown status",
			doc: &Document{
				Id:         1,
				Title:      "Policy",
				Status:     DocumentStatus(99),
				IngestedAt: validTime,
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "future ingestion timestamp",
			doc: &Document{
				Id:         1,
				Title:      "Policy",
				Status:     StatusActive,
				IngestedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			Id:            1,
			DocumentId:    2,
			Text:          "All passwords must be rotated every ninety days.",
			HierarchyPath: []string{"Security Policy", "Passwords"},
			Status:        StatusActive,
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		if err := ValidateChunk(valid(), 0); err != nil {
			t.Errorf("ValidateChunk() unexpected error: %v", err)
		}
	})

	t.Run("valid chunk with empty vector", func(t *testing.T) {
		c := valid()
		c.Vector = nil
		if err := ValidateChunk(c, 0); err != nil {
			t.Errorf("ValidateChunk() unexpected error: %v", err)
		}
	})

	t.Run("nil chunk", func(t *testing.T) {
		if err := ValidateChunk(nil, 0); !errors.Is(err, ErrInvalidChunk) {
			t.Errorf("ValidateChunk() error = %v, want ErrInvalidChunk", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		c := valid()
		c.Text = ""
		if err := ValidateChunk(c, 0); !errors.Is(err, ErrEmptyText) {
			t.Errorf("ValidateChunk() error = %v, want ErrEmptyText", err)
		}
	})

	t.Run("text exceeds limit", func(t *testing.T) {
		c := valid()
		if err := ValidateChunk(c, 10); !errors.Is(err, ErrChunkTooLarge) {
			t.Errorf("ValidateChunk() error = %v, want ErrChunkTooLarge", err)
		}
	})

	t.Run("empty hierarchy path", func(t *testing.T) {
		c := valid()
		c.HierarchyPath = nil
		if err := ValidateChunk(c, 0); !errors.Is(err, ErrEmptyHierarchyPath) {
			t.Errorf("ValidateChunk() error = %v, want ErrEmptyHierarchyPath", err)
		}
	})

	t.Run("missing document reference", func(t *testing.T) {
		c := valid()
		c.DocumentId = 0
		if err := ValidateChunk(c, 0); !errors.Is(err, ErrMissingDocumentRef) {
			t.Errorf("ValidateChunk() error = %v, want ErrMissingDocumentRef", err)
		}
	})
}

func TestValidateCalibrationRecord(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Minute)

	tests := []struct {
		name    string
		record  *CalibrationRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &CalibrationRecord{
				QueryId:    "q-1",
				ChunkId:    7,
				Predicted:  0.85,
				Correct:    true,
				RecordedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidCalibrationRecord,
		},
		{
			name: "predicted above one",
			record: &CalibrationRecord{
				ChunkId:    7,
				Predicted:  1.2,
				RecordedAt: validTime,
			},
			wantErr: ErrConfidenceOutOfRange,
		},
		{
			name: "predicted below zero",
			record: &CalibrationRecord{
				ChunkId:    7,
				Predicted:  -0.1,
				RecordedAt: validTime,
			},
			wantErr: ErrConfidenceOutOfRange,
		},
		{
			name: "missing chunk reference",
			record: &CalibrationRecord{
				Predicted:  0.5,
				RecordedAt: validTime,
			},
			wantErr: ErrMissingDocumentRef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCalibrationRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCalibrationRecord() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCalibrationRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStructureExtractionError(t *testing.T) {
	inner := errors.New("bad encoding")
	err := &StructureExtractionError{
		DocumentId: 3,
		Title:      "Corrupted Upload",
		Reason:     "invalid utf-8",
		Err:        inner,
	}

	var extractionErr *StructureExtractionError
	if !errors.As(error(err), &extractionErr) {
		t.Fatal("errors.As failed to match StructureExtractionError")
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap() does not expose the inner error")
	}
}
