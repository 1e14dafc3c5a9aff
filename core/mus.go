package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the storage layer. Field order is part of
// the on-disk format; append new fields, never reorder.

var (
	// IDMUS serializes core.ID values.
	IDMUS = idMUS{}
	// DocumentMUS serializes Document records.
	DocumentMUS = documentMUS{}
	// ChunkMUS serializes Chunk records.
	ChunkMUS = chunkMUS{}
	// ConversationMUS serializes Conversation records.
	ConversationMUS = conversationMUS{}
)

var (
	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

// Timestamps are stored as unix microseconds. The zero time is encoded as
// math.MinInt64 so it round-trips to exactly time.Time{}.
const zeroTimeMarker = math.MinInt64

func timeSize(t time.Time) int {
	if t.IsZero() {
		return varint.Int64.Size(zeroTimeMarker)
	}
	return varint.Int64.Size(t.UnixMicro())
}

func timeMarshal(t time.Time, bs []byte) int {
	if t.IsZero() {
		return varint.Int64.Marshal(zeroTimeMarker, bs)
	}
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func timeUnmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == zeroTimeMarker {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

type idMUS struct{}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

type documentMUS struct{}

func (documentMUS) Size(d Document) int {
	return ord.String.Size(d.Id) +
		ord.String.Size(d.Title) +
		ord.String.Size(d.Description) +
		ord.String.Size(d.FileName) +
		ord.String.Size(d.FilePath) +
		ord.String.Size(d.FileType) +
		varint.Int64.Size(d.FileSize) +
		varint.Int.Size(int(d.Status)) +
		ord.String.Size(d.ProcessingError) +
		timeSize(d.CreatedAt) +
		timeSize(d.ProcessedAt)
}

func (documentMUS) Marshal(d Document, bs []byte) int {
	n := ord.String.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Description, bs[n:])
	n += ord.String.Marshal(d.FileName, bs[n:])
	n += ord.String.Marshal(d.FilePath, bs[n:])
	n += ord.String.Marshal(d.FileType, bs[n:])
	n += varint.Int64.Marshal(d.FileSize, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.ProcessingError, bs[n:])
	n += timeMarshal(d.CreatedAt, bs[n:])
	n += timeMarshal(d.ProcessedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var m int
	if d.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if d.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.FileName, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.FilePath, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.FileType, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.FileSize, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	var status int
	if status, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	d.Status = DocumentStatus(status)
	n += m
	if d.ProcessingError, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.CreatedAt, m, err = timeUnmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.ProcessedAt, m, err = timeUnmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

type chunkMUS struct{}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		ord.String.Size(c.DocumentId) +
		ord.String.Size(c.Content) +
		varint.Int.Size(c.ChunkIndex) +
		vectorMUS.Size(c.Vector) +
		metadataMUS.Size(c.Metadata) +
		timeSize(c.InsertedAt)
}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.DocumentId, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += varint.Int.Marshal(c.ChunkIndex, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	n += metadataMUS.Marshal(c.Metadata, bs[n:])
	n += timeMarshal(c.InsertedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var m int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.DocumentId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.ChunkIndex, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Vector, m, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Metadata, m, err = metadataMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.InsertedAt, m, err = timeUnmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

type conversationMUS struct{}

func (conversationMUS) Size(c Conversation) int {
	return IDMUS.Size(c.Id) +
		ord.String.Size(c.SessionId) +
		ord.String.Size(c.Question) +
		ord.String.Size(c.Answer) +
		varint.Int.Size(c.ChunksUsed) +
		timeSize(c.CreatedAt)
}

func (conversationMUS) Marshal(c Conversation, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.SessionId, bs[n:])
	n += ord.String.Marshal(c.Question, bs[n:])
	n += ord.String.Marshal(c.Answer, bs[n:])
	n += varint.Int.Marshal(c.ChunksUsed, bs[n:])
	n += timeMarshal(c.CreatedAt, bs[n:])
	return n
}

func (conversationMUS) Unmarshal(bs []byte) (c Conversation, n int, err error) {
	var m int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.SessionId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Question, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Answer, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.ChunksUsed, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.CreatedAt, m, err = timeUnmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}
