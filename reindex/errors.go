package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrDocumentRepositoryRequired indicates a Reindexer was created
	// without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrProcessorRequired indicates a Reindexer was created without a
	// document processor.
	ErrProcessorRequired = errors.New("document processor is required")
)
