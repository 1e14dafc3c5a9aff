package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
//
// Chunks are keyed by (document ID, chunk index), so one document's chunks
// occupy a contiguous key range and prefix scans return them in index order.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FindSimilarChunks delegates to the backend.
func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error) {
	return r.backend.FindSimilarChunks(ctx, vector, minSimilarity, limit)
}

// ReplaceChunks atomically replaces all chunks of a document.
// The delete of the old set and the write of the new set share one
// transaction, so readers never observe a partial replacement.
// The replacement set must fit in one badger transaction, which caps
// out at 15% of the memtable size (about 10 MiB with default options).
// An oversize set fails whole with badger.ErrTxnTooBig rather than
// applying partially.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.deleteChunksTx(tx, documentID); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, chunk := range chunks {
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = now
			}

			key := makeChunkKey(chunk.DocumentId, chunk.ChunkIndex)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteChunks removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.deleteChunksTx(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetChunksByDocument retrieves all chunks of a document in index order.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentID string) ([]*core.Chunk, error) {
	var result []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountChunks returns the number of stored chunks for a document.
func (r *ChunkRepository) CountChunks(ctx context.Context, documentID string) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// deleteChunksTx removes all chunk keys of a document within a transaction.
func (r *ChunkRepository) deleteChunksTx(tx *badger.Txn, documentID string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkDocumentPrefix(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
