package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ConversationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddConversation appends a conversation record.
func (r *ConversationRepository) AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error) {
	if err := core.ValidateConversation(conv); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Always generate new ID from sequence
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		conv.Id = core.ID(nextID)

		if conv.CreatedAt.IsZero() {
			conv.CreatedAt = time.Now().UTC()
		}

		// Store primary record
		key := makeConversationKey(conv.Id)
		if err := tx.Set(key, storage.MarshalConversation(conv)); err != nil {
			return err
		}

		// Update date index
		dateKey := makeConversationDateKey(conv.CreatedAt, conv.Id)
		if err := tx.Set(dateKey, storage.MarshalID(conv.Id)); err != nil {
			return err
		}

		// Update session index
		if conv.SessionId != "" {
			sessionKey := makeConversationSessionKey(conv.SessionId, conv.Id)
			if err := tx.Set(sessionKey, storage.MarshalID(conv.Id)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return conv, nil
}

// GetRecentConversations retrieves the N most recent conversations.
// Walks the date index in reverse, newest first.
func (r *ConversationRepository) GetRecentConversations(ctx context.Context, limit int) ([]*core.Conversation, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var result []*core.Conversation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(conversationDatePrefix + ":")

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// In reverse mode, seek to the end of the prefix range first.
		seekKey := append(append([]byte{}, prefix...), 0xFF)

		for iter.Seek(seekKey); iter.Valid() && len(result) < limit; iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			conv, err := r.readConversation(tx, id)
			if err != nil {
				return err
			}
			if conv != nil {
				result = append(result, conv)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetConversationsBySession retrieves all conversations of a session in
// creation order.
func (r *ConversationRepository) GetConversationsBySession(ctx context.Context, sessionID string) ([]*core.Conversation, error) {
	var result []*core.Conversation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeConversationSessionPrefix(sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			conv, err := r.readConversation(tx, id)
			if err != nil {
				return err
			}
			if conv != nil {
				result = append(result, conv)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// readConversation reads a conversation by ID within a transaction.
// Returns nil (not an error) if the record doesn't exist.
func (r *ConversationRepository) readConversation(tx *badger.Txn, id core.ID) (*core.Conversation, error) {
	item, err := tx.Get(makeConversationKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var conv *core.Conversation
	err = item.Value(func(val []byte) error {
		var err error
		conv, err = storage.UnmarshalConversation(val)
		return err
	})
	return conv, err
}
