package storage

import (
	"context"
	"io"

	"github.com/practicalaiml/askdocs/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	Repository
	// AddDocument adds a document record to storage.
	// Sets CreatedAt if not already set. Returns ErrDuplicateKey if a
	// document with the same ID already exists.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument replaces an existing document record.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// DeleteDocument removes a document record by ID.
	// Returns ErrNotFound if the document doesn't exist.
	// Does NOT remove the document's chunks or stored file; callers
	// cascade those deletions themselves.
	DeleteDocument(ctx context.Context, id string) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments retrieves all documents, ordered by creation time
	// descending (newest first).
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// MarkProcessing atomically transitions a document to the processing
	// state. Returns ErrAlreadyProcessing if the document is already being
	// processed, making the processing status usable as an advisory lock.
	// Returns ErrNotFound if the document doesn't exist.
	MarkProcessing(ctx context.Context, id string) (*core.Document, error)

	// SetStatus transitions a document to the given terminal state and
	// records the processing error message (empty on success).
	// Sets ProcessedAt when the new status is processed.
	// Returns core.ErrInvalidTransition if the transition is not allowed.
	SetStatus(ctx context.Context, id string, status core.DocumentStatus, processingError string) (*core.Document, error)
}

// ChunkRepository provides operations for managing document chunks and
// vector similarity search over them.
type ChunkRepository interface {
	Repository
	// ReplaceChunks atomically replaces all chunks of a document with the
	// given set. Existing chunks for the document are removed in the same
	// transaction, so a reader never observes a mix of old and new chunks.
	// Sets InsertedAt timestamps if not already set.
	ReplaceChunks(ctx context.Context, documentID string, chunks []*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes all chunks belonging to a document.
	// Deleting chunks of an unknown document is a no-op.
	DeleteChunks(ctx context.Context, documentID string) error

	// GetChunksByDocument retrieves all chunks of a document, ordered by
	// chunk index ascending.
	GetChunksByDocument(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// FindSimilarChunks finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first); ties are
	// broken by document ID and chunk index for deterministic output.
	FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error)

	// CountChunks returns the number of stored chunks for a document.
	// Returns 0 for an unknown document.
	CountChunks(ctx context.Context, documentID string) (int, error)
}

// ConversationRepository provides operations for the append-only
// conversation log.
type ConversationRepository interface {
	Repository
	// AddConversation appends a conversation record.
	// Generates a new ID from sequence and sets CreatedAt if not already set.
	// Returns the record with ID and timestamp populated.
	AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error)

	// GetRecentConversations retrieves the N most recent conversations,
	// ordered by creation time descending.
	GetRecentConversations(ctx context.Context, limit int) ([]*core.Conversation, error)

	// GetConversationsBySession retrieves all conversations of a session,
	// ordered by creation time ascending.
	GetConversationsBySession(ctx context.Context, sessionID string) ([]*core.Conversation, error)
}

// FileStore persists uploaded document files. Implementations must be
// thread-safe.
type FileStore interface {
	// Save writes the file content under a storage-chosen path derived from
	// the given name. Returns the storage path and the number of bytes written.
	Save(ctx context.Context, name string, content io.Reader) (path string, size int64, err error)

	// Open opens a previously saved file for reading.
	// Returns ErrNotFound if no file exists at the path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a saved file.
	// Returns ErrNotFound if no file exists at the path.
	Delete(ctx context.Context, path string) error
}
