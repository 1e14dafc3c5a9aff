package ingestion

import (
	"fmt"
	"strings"
)

// Default chunking parameters, sized for embedding-model context limits.
const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 200
)

// Chunker splits extracted text into overlapping character windows.
// Splitting is pure and deterministic: the same text always yields the
// same windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in characters. The overlap must be smaller than the size, otherwise the
// window would never advance.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidChunking, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunking, chunkOverlap, chunkSize)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// DefaultChunker returns a chunker with the default parameters.
func DefaultChunker() *Chunker {
	c, _ := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	return c
}

// Split slices text into overlapping windows. Whitespace-only windows are
// dropped; the remaining windows keep their original order.
func (c *Chunker) Split(text string) []string {
	if len(text) == 0 {
		return nil
	}

	step := c.chunkSize - c.chunkOverlap
	var pieces []string

	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}

		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			pieces = append(pieces, piece)
		}

		if end >= len(text) {
			break
		}
	}

	return pieces
}

// Size returns the configured window size in characters.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Overlap returns the configured window overlap in characters.
func (c *Chunker) Overlap() int {
	return c.chunkOverlap
}
