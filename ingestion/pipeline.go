// Copyright 2025 Practical AI & ML
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/practicalaiml/askdocs/ai"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// DefaultEmbedConcurrency caps how many chunks of one document are embedded
// in parallel.
const DefaultEmbedConcurrency = 5

// Pipeline orchestrates document ingestion: extract, chunk, embed, store.
// One Pipeline serves all documents; chunk embedding within a document is
// fanned out over a bounded worker pool.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	files     storage.FileStore
	embedder  ai.Embedder
	extractor Extractor
	chunker   *Chunker
	embedPool *ants.Pool
	docPool   *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk embedding.
// Default is DefaultEmbedConcurrency.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embedPool != nil {
			p.embedPool.Release()
		}

		embedPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embedPool = embedPool
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

// WithChunker sets a custom chunker.
// Default uses DefaultChunkSize and DefaultChunkOverlap.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			return ErrInvalidChunking
		}
		p.chunker = chunker
		return nil
	}
}

// WithExtractor sets a custom text extractor.
// Default is the plain-text extractor.
func WithExtractor(extractor Extractor) Option {
	return func(p *Pipeline) error {
		if extractor == nil {
			return fmt.Errorf("extractor cannot be nil")
		}
		p.extractor = extractor
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	files storage.FileStore,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	embedPool, err := ants.NewPool(DefaultEmbedConcurrency)
	if err != nil {
		return nil, err
	}

	// Async document runs are serialized through a single worker; the
	// advisory lock makes concurrent runs on one document pointless anyway.
	docPool, err := ants.NewPool(1)
	if err != nil {
		embedPool.Release()
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		chunks:    chunks,
		files:     files,
		embedder:  embedder,
		extractor: NewPlainTextExtractor(),
		chunker:   DefaultChunker(),
		embedPool: embedPool,
		docPool:   docPool,
		logger:    slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Process runs the full ingestion for one document: mark processing, extract
// text, chunk, embed, and atomically replace the document's chunks.
//
// The processing status acts as an advisory lock: a second Process call for
// the same document fails with storage.ErrAlreadyProcessing until this run
// reaches a terminal state. Any failure moves the document to the error
// state with the cause recorded; re-processing after an error is allowed.
func (p *Pipeline) Process(ctx context.Context, documentID string) error {
	doc, err := p.documents.MarkProcessing(ctx, documentID)
	if err != nil {
		return err
	}

	logger := p.logger.With("document", documentID)
	logger.Info("processing document", "file", doc.FileName)

	text, err := p.extractText(ctx, doc)
	if err != nil {
		return p.fail(ctx, documentID, logger, err)
	}

	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		// Nothing to index. Clear any chunks from a previous run and mark
		// the document processed with zero chunks.
		if err := p.chunks.DeleteChunks(ctx, documentID); err != nil {
			return p.fail(ctx, documentID, logger, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err))
		}
		if _, err := p.documents.SetStatus(ctx, documentID, core.StatusProcessed, ""); err != nil {
			return err
		}
		logger.Info("document processed", "chunks", 0)
		return nil
	}

	docChunks, err := p.embedPieces(ctx, doc, pieces)
	if err != nil {
		return p.fail(ctx, documentID, logger, err)
	}

	if _, err := p.chunks.ReplaceChunks(ctx, documentID, docChunks); err != nil {
		// Best effort: don't leave partial chunks behind.
		if delErr := p.chunks.DeleteChunks(ctx, documentID); delErr != nil {
			logger.Error("failed to clean up chunks", "err", delErr)
		}
		return p.fail(ctx, documentID, logger, fmt.Errorf("%w: %w", storage.ErrWriteFailed, err))
	}

	if _, err := p.documents.SetStatus(ctx, documentID, core.StatusProcessed, ""); err != nil {
		return err
	}

	logger.Info("document processed", "chunks", len(docChunks))
	return nil
}

// ProcessAsync queues a document for processing on a background worker.
// Errors during async processing are logged but not returned.
func (p *Pipeline) ProcessAsync(documentID string) error {
	return p.docPool.Submit(func() {
		if err := p.Process(context.Background(), documentID); err != nil {
			p.logger.Error("async processing failed", "document", documentID, "err", err)
		}
	})
}

// Release releases the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embedPool != nil {
		p.embedPool.Release()
	}
	if p.docPool != nil {
		p.docPool.Release()
	}
}

// extractText opens the stored file and extracts its text.
func (p *Pipeline) extractText(ctx context.Context, doc *core.Document) (string, error) {
	content, err := p.files.Open(ctx, doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer content.Close()

	return p.extractor.Extract(ctx, content, doc.FileType)
}

// embedPieces embeds all windows of a document in parallel, bounded by the
// embed pool. Windows whose embedding fails are dropped with a warning; the
// survivors are renumbered contiguously so chunk indexes stay gapless. If
// every window fails, the whole run fails.
func (p *Pipeline) embedPieces(ctx context.Context, doc *core.Document, pieces []string) ([]*core.Chunk, error) {
	type result struct {
		vector []float32
		err    error
	}

	results := make([]result, len(pieces))
	var wg sync.WaitGroup

	for i, piece := range pieces {
		wg.Add(1)
		submitErr := p.embedPool.Submit(func() {
			defer wg.Done()
			vector, err := p.embedder.EmbedText(ctx, piece)
			results[i] = result{vector: vector, err: err}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = result{err: submitErr}
		}
	}
	wg.Wait()

	logger := p.logger.With("document", doc.Id)

	var chunks []*core.Chunk
	failed := 0
	for i, res := range results {
		if res.err != nil {
			failed++
			logger.Warn("skipping chunk after embedding failure", "window", i, "err", res.err)
			continue
		}

		index := len(chunks)
		chunks = append(chunks, &core.Chunk{
			Id:         core.ChunkIDFor(doc.Id, index, pieces[i]),
			DocumentId: doc.Id,
			Content:    pieces[i],
			ChunkIndex: index,
			Vector:     res.vector,
			Metadata: map[string]string{
				core.MetaSourceFile:  doc.FileName,
				core.MetaSourceIndex: strconv.Itoa(i),
			},
		})
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: all %d chunks failed", ai.ErrEmbeddingFailed, len(pieces))
	}

	total := strconv.Itoa(len(chunks))
	for _, chunk := range chunks {
		chunk.Metadata[core.MetaTotalChunks] = total
	}

	if failed > 0 {
		logger.Warn("document processed with partial embedding failures",
			"failed", failed, "stored", len(chunks))
	}

	return chunks, nil
}

// fail moves the document to the error state, recording the cause.
func (p *Pipeline) fail(ctx context.Context, documentID string, logger *slog.Logger, cause error) error {
	logger.Error("document processing failed", "err", cause)

	if _, err := p.documents.SetStatus(ctx, documentID, core.StatusError, cause.Error()); err != nil {
		logger.Error("failed to record error status", "err", err)
	}
	return cause
}
