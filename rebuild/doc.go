// Package rebuild provides offline reconstruction of the vector index
// from stored chunks.
//
// A rebuild streams every chunk out of storage in batches, optionally
// regenerates embeddings, constructs a fresh index snapshot, and
// publishes it through the snapshot store's append-then-swap protocol.
// The previously published snapshot keeps serving queries until the
// new one is published, so a failed rebuild never degrades search.
//
// The package supports progress tracking and retry logic with
// exponential backoff for embedding API calls.
package rebuild
