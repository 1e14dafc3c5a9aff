package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/practicalaiml/askdocs/ai"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// Default retrieval parameters. A 0.7 cosine threshold keeps only chunks
// that are clearly on-topic; three excerpts fit comfortably in the answer
// prompt.
const (
	DefaultThreshold = 0.7
	DefaultTopK      = 3
)

// Searcher finds document chunks relevant to a question using vector
// similarity over stored embeddings.
type Searcher struct {
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	threshold float32
	topK      int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithThreshold sets the minimum cosine similarity for a chunk to be
// considered relevant. Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold must be in [-1, 1], got %v", threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// WithTopK sets the maximum number of chunks returned per query.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(s *Searcher) error {
		if topK < 1 {
			return fmt.Errorf("topK must be positive, got %d", topK)
		}
		s.topK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:    chunks,
		embedder:  embedder,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
		logger:    slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindRelevant returns the chunks most similar to the query, highest score
// first. An empty result is not an error; it means nothing in the knowledge
// base cleared the similarity threshold.
func (s *Searcher) FindRelevant(ctx context.Context, query string) ([]*core.ScoredChunk, error) {
	return s.FindRelevantWithMonitor(ctx, query, nil)
}

// FindRelevantWithMonitor is FindRelevant with observation hooks.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindRelevantWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.ScoredChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	monitor.AfterQueryEmbedding(vector)

	results, err := s.chunks.FindSimilarChunks(ctx, vector, s.threshold, s.topK)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	s.logger.Debug("similarity search complete",
		"query_length", len(query), "hits", len(results))
	monitor.Finish(results)

	return results, nil
}

// Threshold returns the configured similarity threshold.
func (s *Searcher) Threshold() float32 {
	return s.threshold
}

// TopK returns the configured result limit.
func (s *Searcher) TopK() int {
	return s.topK
}
