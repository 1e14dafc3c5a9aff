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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - FileName and FilePath must not be empty
//   - Status must be a known lifecycle state
//
// NOT validated (set by the ingestion pipeline):
//   - ProcessingError (empty until a run fails)
//   - ProcessedAt (zero until a run succeeds)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentId)
	}

	if doc.FileName == "" || doc.FilePath == "" {
		return fmt.Errorf("%w: file name and path are required", ErrInvalidDocument)
	}

	if _, ok := statusNames[doc.Status]; !ok {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidStatus)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must not be empty
//   - Content must not be empty
//   - ChunkIndex must not be negative
//
// NOT validated:
//   - Vector (empty when the embedding call was skipped or failed)
//   - Id (derived from content by the pipeline)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentId)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	return nil
}

// ValidateConversation validates a Conversation log entry.
func ValidateConversation(conv *Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if conv.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrEmptyContent)
	}

	if conv.ChunksUsed < 0 {
		return fmt.Errorf("%w: chunks used cannot be negative", ErrInvalidConversation)
	}

	return nil
}
