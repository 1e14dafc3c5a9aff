package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrFileStoreRequired is returned when a file store is not provided.
	ErrFileStoreRequired = errors.New("file store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrExtractionFailed indicates that text could not be extracted from a
	// document file.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrInvalidChunking indicates invalid chunker parameters.
	ErrInvalidChunking = errors.New("invalid chunking parameters")
)
