package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for chunk and conversation records.
// Chunk IDs are content-based hashes; conversation IDs come from
// database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents an uploaded knowledge-base document. The raw file lives
// in a FileStore; Document rows carry metadata and ingestion lifecycle state.
type Document struct {
	Id              string         `json:"id"` // UUID
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	FileName        string         `json:"file_name"`
	FilePath        string         `json:"file_path"`
	FileType        string         `json:"file_type"`
	FileSize        int64          `json:"file_size"`
	Status          DocumentStatus `json:"status"`
	ProcessingError string         `json:"processing_error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ProcessedAt     time.Time      `json:"processed_at,omitzero"`
}

// Chunk is a contiguous slice of a document's extracted text, small enough to
// embed and retrieve individually. ChunkIndex values for one document are
// contiguous from 0 and follow the slice order of the source text.
type Chunk struct {
	Id         ID                `json:"id"`
	DocumentId string            `json:"document_id"`
	Content    string            `json:"content"`
	ChunkIndex int               `json:"chunk_index"`
	Vector     []float32         `json:"-"` // Embedding vector, dimensionality fixed by deployment
	Metadata   map[string]string `json:"metadata,omitempty"`
	InsertedAt time.Time         `json:"inserted_at"`
}

// Chunk metadata keys populated by the ingestion pipeline.
const (
	MetaSourceFile  = "source_file"
	MetaSourceIndex = "source_index" // window position before failed chunks were dropped
	MetaTotalChunks = "total_chunks"
)

// ChunkIDFor derives the content-based ID for a chunk of a document.
func ChunkIDFor(documentId string, chunkIndex int, content string) ID {
	return IDFromContent(documentId + "/" + strconv.Itoa(chunkIndex) + "/" + content)
}

// Conversation is one logged question/answer exchange from the support chat.
// Records are append-only and used for analytics, never read back into the
// retrieval pipeline.
type Conversation struct {
	Id         ID        `json:"id"`
	SessionId  string    `json:"session_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	ChunksUsed int       `json:"chunks_used"` // 0 signals the fallback context was used
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredChunk is a chunk annotated with its similarity to a query vector.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}
