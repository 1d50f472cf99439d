package storage

import (
	"context"
	"time"

	"github.com/poiesic/retrievit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing source documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates content-based IDs from the title.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments retrieves all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// FlagDocument marks a document as excluded from indexing, with a
	// human-readable reason surfaced to the operator.
	FlagDocument(ctx context.Context, id core.ID, reason string) error

	// ListFlagged returns the IDs and reasons of all flagged documents.
	ListFlagged(ctx context.Context) (map[core.ID]string, error)
}

// ChunkRepository provides operations for managing retrieval chunks.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, generates content-based IDs.
	// Assigns a monotonic Seq to each chunk for stable tie-breaking.
	// Sets InsertedAt timestamp if not already set.
	// Returns the chunks with IDs, Seq, and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs.
	// Also removes associated document indices.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// DeleteChunksByDocument removes all chunks belonging to a document.
	DeleteChunksByDocument(ctx context.Context, documentID core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks belonging to a document,
	// ordered by Seq.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// IterateChunks streams all chunks in Seq order in batches of
	// batchSize, invoking fn for each batch. Iteration stops on the
	// first error returned by fn.
	IterateChunks(ctx context.Context, batchSize int, fn func(chunks []*core.Chunk) error) error

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// CalibrationRepository provides append-only storage for calibration records.
type CalibrationRepository interface {
	Repository
	// AppendRecords appends calibration records. Records are never
	// updated or deleted; the history is the source of truth for
	// calibration mapping fits.
	// Returns the records with IDs and RecordedAt populated.
	AppendRecords(ctx context.Context, records ...*core.CalibrationRecord) ([]*core.CalibrationRecord, error)

	// GetRecordsSince retrieves records with RecordedAt >= since,
	// ordered by RecordedAt.
	GetRecordsSince(ctx context.Context, since time.Time) ([]*core.CalibrationRecord, error)

	// ListRecords retrieves all calibration records ordered by RecordedAt.
	ListRecords(ctx context.Context) ([]*core.CalibrationRecord, error)

	// CountRecords returns the total number of calibration records.
	CountRecords(ctx context.Context) (int, error)
}

// SnapshotStore persists versioned index snapshot payloads using an
// append-then-swap protocol: a payload is written under its version
// first, and the current-version pointer is moved in a separate,
// atomically committed write. A crash between the two leaves the
// previously published version servable.
type SnapshotStore interface {
	// PutSnapshot stores a snapshot payload under the given version.
	// Does not change which version is current.
	PutSnapshot(ctx context.Context, version uint64, payload []byte) error

	// GetSnapshot retrieves the payload for a version.
	// Returns ErrNotFound if the version doesn't exist.
	GetSnapshot(ctx context.Context, version uint64) ([]byte, error)

	// CurrentVersion returns the published snapshot version.
	// Returns ErrNotFound if no snapshot has ever been published.
	CurrentVersion(ctx context.Context) (uint64, error)

	// SetCurrentVersion atomically publishes a version as current.
	// Returns ErrNotFound if the version has no stored payload.
	SetCurrentVersion(ctx context.Context, version uint64) error

	// ListVersions returns all stored snapshot versions in ascending order.
	ListVersions(ctx context.Context) ([]uint64, error)

	// DeleteSnapshot removes a retired snapshot payload.
	// The current version cannot be deleted.
	DeleteSnapshot(ctx context.Context, version uint64) error

	// Close releases resources.
	Close() error
}
