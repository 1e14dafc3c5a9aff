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


package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/practicalaiml/askdocs/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts per document
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// DocumentProcessor runs a document through the ingestion pipeline.
// *ingestion.Pipeline satisfies this interface.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) error
}

// Reindexer re-runs every stored document through the ingestion pipeline,
// rebuilding its chunks and embeddings. Useful after switching embedding
// models or changing chunking parameters.
type Reindexer struct {
	documents storage.DocumentRepository
	processor DocumentProcessor
	config    *Config
	progress  io.Writer
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(documents storage.DocumentRepository, processor DocumentProcessor, config *Config, progress io.Writer) (*Reindexer, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		documents: documents,
		processor: processor,
		config:    config,
		progress:  progress,
	}, nil
}

// Run reprocesses all documents. Documents currently being processed
// elsewhere are skipped; documents that still fail after the configured
// retries are left in the error status and counted, without stopping the
// run. Returns the number of documents reprocessed successfully.
func (r *Reindexer) Run(ctx context.Context) (int, error) {
	docs, err := r.documents.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	total := len(docs)
	if total == 0 {
		fmt.Fprintf(r.progress, "No documents found (0 documents)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reindexing of %d documents\n", total)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	succeeded := 0
	skipped := 0
	failed := 0

	for i, doc := range docs {
		docSkipped := false
		err := RetryWithBackoff(ctx, func() error {
			err := r.processor.Process(ctx, doc.Id)
			if errors.Is(err, storage.ErrAlreadyProcessing) {
				// Someone else holds the document; retrying here would
				// just race them.
				docSkipped = true
				return nil
			}
			return err
		}, r.config.MaxRetries, r.config.RetryDelay)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return succeeded, ctx.Err()
			}
			fmt.Fprintf(r.progress, "\nFailed to reindex document %s: %v\n", doc.Id, err)
			failed++
		case docSkipped:
			skipped++
		default:
			succeeded++
		}

		tracker.Update(i + 1)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindexing complete. Processed %d documents in %v (%d failed, %d skipped)\n",
		succeeded, elapsed.Round(time.Second), failed, skipped)

	return succeeded, nil
}
