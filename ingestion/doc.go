// Package ingestion provides pipeline orchestration for bringing
// documents into the retrieval store.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Slicing extracted documents into hierarchy-tagged chunks
//   - Adding documents and chunks to storage
//   - Generating chunk embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool. Errors
// during async processing are logged but do not fail the ingestion
// operation. Documents whose structure cannot be extracted are flagged
// in the document repository and skipped rather than aborting a batch.
package ingestion
