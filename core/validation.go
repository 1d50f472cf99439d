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


package core

import (
	"fmt"
	"time"
)

// DefaultMaxChunkTextLen is the chunk text length limit used when a
// caller does not configure one.
const DefaultMaxChunkTextLen = 4000

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Status must be a known DocumentStatus
//   - IngestedAt must not be in the future
//
// NOT validated:
//   - ID (0 is valid before content hashing)
//   - Size and Format (informational)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !IsValidTimestamp(doc.IngestedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
// maxTextLen bounds the chunk text length; values <= 0 fall back to
// DefaultMaxChunkTextLen.
//
// Validation rules:
//   - Text must not be empty and must not exceed maxTextLen
//   - HierarchyPath must not be empty
//   - DocumentId must reference a document
//   - Status must be a known DocumentStatus
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
func ValidateChunk(chunk *Chunk, maxTextLen int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if maxTextLen <= 0 {
		maxTextLen = DefaultMaxChunkTextLen
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}
	if len(chunk.Text) > maxTextLen {
		return fmt.Errorf("%w: %w (%d > %d)", ErrInvalidChunk, ErrChunkTooLarge, len(chunk.Text), maxTextLen)
	}
	if len(chunk.HierarchyPath) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyHierarchyPath)
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingDocumentRef)
	}
	if err := ValidateStatus(chunk.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	return nil
}

// ValidateCalibrationRecord validates a CalibrationRecord.
//
// Validation rules:
//   - Predicted must be in [0, 1]
//   - ChunkId must be set
//   - RecordedAt must not be in the future
func ValidateCalibrationRecord(record *CalibrationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidCalibrationRecord)
	}

	if record.Predicted < 0 || record.Predicted > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidCalibrationRecord, ErrConfidenceOutOfRange)
	}
	if record.ChunkId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCalibrationRecord, ErrMissingDocumentRef)
	}
	if !IsValidTimestamp(record.RecordedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidCalibrationRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateStatus checks that the status is a known DocumentStatus.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusActive, StatusDraft, StatusArchived:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
}

// IsValidTimestamp reports whether the timestamp is not in the future.
// A small clock-skew allowance of one minute is permitted.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(time.Minute))
}
