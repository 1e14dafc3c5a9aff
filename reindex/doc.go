// Package reindex rebuilds chunks and embeddings for documents already in
// the store, typically after an embedding model or chunking change.
//
// The package supports progress tracking and retry logic with exponential
// backoff; documents locked by another processor are skipped rather than
// fought over.
package reindex
