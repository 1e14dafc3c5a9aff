package badger

import (
	"errors"

	"github.com/practicalaiml/askdocs/storage"
)

// Repositories bundles the BadgerDB-backed repositories sharing one database.
type Repositories struct {
	Documents     storage.DocumentRepository
	Chunks        storage.ChunkRepository
	Conversations storage.ConversationRepository

	backend      *Backend
	conversation *ConversationRepository
}

// NewRepositories opens a BadgerDB database at path and creates the document,
// chunk, and conversation repositories on top of it.
// Caller must Close the result when done.
func NewRepositories(path string) (*Repositories, error) {
	return newRepositories(path, false)
}

func newRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	conversations, err := NewConversationRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Documents:     NewDocumentRepository(backend),
		Chunks:        NewChunkRepository(backend),
		Conversations: conversations,
		backend:       backend,
		conversation:  conversations,
	}, nil
}

// Close releases the repositories and the underlying database.
func (r *Repositories) Close() error {
	return errors.Join(
		r.conversation.Close(),
		r.backend.Close(),
	)
}

// Backend exposes the shared backend for low-level operations.
func (r *Repositories) Backend() *Backend {
	return r.backend
}
