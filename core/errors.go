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
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidCalibrationRecord indicates a CalibrationRecord failed validation.
	ErrInvalidCalibrationRecord = errors.New("invalid calibration record")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyTitle indicates the document Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyHierarchyPath indicates a chunk has no hierarchy path.
	ErrEmptyHierarchyPath = errors.New("hierarchy path cannot be empty")

	// ErrChunkTooLarge indicates a chunk exceeds the configured text length limit.
	ErrChunkTooLarge = errors.New("chunk text exceeds maximum length")

	// ErrMissingDocumentRef indicates a chunk has no owning document.
	ErrMissingDocumentRef = errors.New("chunk must reference a document")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrConfidenceOutOfRange indicates a confidence value outside [0, 1].
	ErrConfidenceOutOfRange = errors.New("confidence must be in [0, 1]")
)

// StructureExtractionError reports that a document could not be turned
// into a section hierarchy. It is document-level and never fatal to a
// batch: the document is flagged and excluded from the index while the
// rest of the batch proceeds.
type StructureExtractionError struct {
	DocumentId ID
	Title      string
	Reason     string
	Err        error
}

func (e *StructureExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structure extraction failed for %q: %s: %v", e.Title, e.Reason, e.Err)
	}
	return fmt.Sprintf("structure extraction failed for %q: %s", e.Title, e.Reason)
}

func (e *StructureExtractionError) Unwrap() error {
	return e.Err
}
