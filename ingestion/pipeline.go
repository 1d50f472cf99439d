package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/indexer"
	"github.com/poiesic/retrievit/storage"
)

// Pipeline orchestrates the ingestion and processing of documents.
// It slices documents into chunks, persists them, and generates chunk
// embeddings concurrently.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	chunkRepository    storage.ChunkRepository
	indexer            *indexer.Indexer
	embeddingPool      *ants.Pool
	embeddingProc      processor
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithIndexer sets a custom indexer, for example one with a non-default
// chunk length or overlap.
func WithIndexer(ix *indexer.Indexer) Option {
	return func(p *Pipeline) error {
		if ix != nil {
			p.indexer = ix
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documentRepository storage.DocumentRepository,
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default logger
	logger := slog.Default()

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		documentRepository: documentRepository,
		chunkRepository:    chunkRepository,
		indexer:            indexer.New(),
		embeddingPool:      embeddingPool,
		logger:             logger,
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processor after options are applied (so it gets final config)
	embeddingProc, err := newEmbeddingProcessor(chunkRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// IngestDocument adds a document and its chunks to storage and submits
// the chunks for asynchronous embedding.
//
// If the document's structure cannot be extracted, the document record
// is flagged in the repository with the failure reason and a
// *core.StructureExtractionError is returned. Errors during async
// embedding are logged but do not fail the ingestion.
func (p *Pipeline) IngestDocument(ctx context.Context, doc indexer.ExtractedDocument) (*core.Document, error) {
	chunks, err := p.indexer.IndexDocument(doc)
	if err != nil {
		var extractErr *core.StructureExtractionError
		if errors.As(err, &extractErr) {
			p.flagFailure(ctx, doc, extractErr)
		}
		return nil, err
	}

	record := &core.Document{
		Title:      doc.Title,
		Size:       int64(len(doc.Text)),
		Format:     doc.Format,
		Status:     doc.Status,
		IngestedAt: time.Now().UTC(),
	}

	added, err := p.documentRepository.AddDocuments(ctx, record)
	if err != nil {
		return nil, err
	}
	record = added[0]

	refs := make([]*core.Chunk, len(chunks))
	for i := range chunks {
		chunks[i].DocumentId = record.Id
		refs[i] = &chunks[i]
	}

	addedChunks, err := p.chunkRepository.AddChunks(ctx, refs...)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(addedChunks))
	for i, chunk := range addedChunks {
		ids[i] = chunk.Id
	}

	// Submit for async processing
	p.embeddingPool.Submit(func() {
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
			return
		}
		if err := p.embeddingProc.checkpoint(); err != nil {
			p.logger.Error("error applying embedding checkpoint", "err", err)
		}
	})

	p.logger.Info("ingested document",
		"document", record.Id, "title", record.Title, "chunks", len(addedChunks))
	return record, nil
}

// flagFailure records a failed document so it can be inspected later.
// Documents that cannot be stored at all (for example a missing title)
// are only logged; the extraction error is still reported to the
// caller either way.
func (p *Pipeline) flagFailure(ctx context.Context, doc indexer.ExtractedDocument, extractErr *core.StructureExtractionError) {
	record := &core.Document{
		Title:      doc.Title,
		Size:       int64(len(doc.Text)),
		Format:     doc.Format,
		Status:     doc.Status,
		IngestedAt: time.Now().UTC(),
	}
	added, err := p.documentRepository.AddDocuments(ctx, record)
	if err != nil {
		p.logger.Warn("skipped document after extraction failure",
			"title", doc.Title, "reason", extractErr.Reason, "err", err)
		return
	}
	extractErr.DocumentId = added[0].Id
	if flagErr := p.documentRepository.FlagDocument(ctx, added[0].Id, extractErr.Reason); flagErr != nil {
		p.logger.Error("error flagging document", "document", added[0].Id, "err", flagErr)
	}
	p.logger.Warn("flagged document after extraction failure",
		"document", added[0].Id, "title", doc.Title, "reason", extractErr.Reason)
}

// BatchReport describes the outcome of a batch ingestion.
type BatchReport struct {
	// Documents holds the stored document per input position. Documents
	// that failed structure extraction have a nil entry.
	Documents []*core.Document
	// Failures lists the extraction failures. A failed document never
	// aborts the batch.
	Failures []*core.StructureExtractionError
}

// IngestBatch ingests every document in the batch. Documents that fail
// structure extraction are flagged and skipped; storage errors abort
// the batch.
func (p *Pipeline) IngestBatch(ctx context.Context, docs []indexer.ExtractedDocument) (*BatchReport, error) {
	report := &BatchReport{Documents: make([]*core.Document, len(docs))}
	for i, doc := range docs {
		record, err := p.IngestDocument(ctx, doc)
		if err != nil {
			var extractErr *core.StructureExtractionError
			if errors.As(err, &extractErr) {
				report.Failures = append(report.Failures, extractErr)
				continue
			}
			return report, err
		}
		report.Documents[i] = record
	}
	return report, nil
}

// Drain blocks until all submitted async work has finished or the
// context is cancelled.
func (p *Pipeline) Drain(ctx context.Context) error {
	for p.embeddingPool.Running() > 0 || p.embeddingPool.Waiting() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
