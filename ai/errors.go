package ai

import "errors"

// Sentinel errors for AI service failures. Concrete implementations wrap
// these with provider detail so callers can classify failures with errors.Is.
var (
	// ErrEmbeddingFailed indicates the embedding service could not produce
	// a vector for the given text.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrGenerationFailed indicates the completion service could not produce
	// an answer.
	ErrGenerationFailed = errors.New("answer generation failed")
)
