package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/practicalaiml/askdocs/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix      = "docrec"
	chunkRecordPrefix         = "chkrec"
	conversationRecordPrefix  = "convrec"
	conversationDatePrefix    = "convrecd"
	conversationSessionPrefix = "convrecs"
	conversationIDSeq         = "convrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, id))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:chunkIndex
// The index is written in BigEndian order so a prefix scan over one
// document returns chunks in index order.
func makeChunkKey(documentID string, chunkIndex int) []byte {
	prefix := fmt.Sprintf("%s:%s:", chunkRecordPrefix, documentID)
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makeChunkDocumentPrefix generates the scan prefix for all chunks of a document.
func makeChunkDocumentPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, documentID))
}

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conversationRecordPrefix, id))
}

// makeConversationDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeConversationDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := conversationDatePrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16) // 8 bytes timestamp + 8 bytes ID
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeConversationSessionKey generates a composite key for the session index.
// Format: prefix:sessionID:id
func makeConversationSessionKey(sessionID string, id core.ID) []byte {
	prefix := fmt.Sprintf("%s:%s:", conversationSessionPrefix, sessionID)
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeConversationSessionPrefix generates the scan prefix for one session.
func makeConversationSessionPrefix(sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", conversationSessionPrefix, sessionID))
}
