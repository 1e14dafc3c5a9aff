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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/practicalaiml/askdocs/chat"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
)

// maxUploadBytes caps document uploads.
const maxUploadBytes = 32 << 20 // 32 MiB

// apologyMessage is returned to the end user when answer generation fails.
const apologyMessage = "I apologize, but I'm not able to provide a complete answer to your question. Please email us at support@practicalaiml.com.au for detailed assistance."

// Ingestor triggers document processing. *ingestion.Pipeline satisfies
// this interface.
type Ingestor interface {
	Process(ctx context.Context, documentID string) error
	ProcessAsync(documentID string) error
}

// Answerer produces chat answers. *chat.Responder satisfies this interface.
type Answerer interface {
	Respond(ctx context.Context, sessionID, question string) (*chat.Answer, error)
}

// Handler serves the HTTP API.
type Handler struct {
	documents     storage.DocumentRepository
	chunks        storage.ChunkRepository
	conversations storage.ConversationRepository
	files         storage.FileStore
	ingestor      Ingestor
	answerer      Answerer
	logger        *slog.Logger
}

// NewHandler creates an API handler over the given storage and services.
func NewHandler(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	conversations storage.ConversationRepository,
	files storage.FileStore,
	ingestor Ingestor,
	answerer Answerer,
) *Handler {
	return &Handler{
		documents:     documents,
		chunks:        chunks,
		conversations: conversations,
		files:         files,
		ingestor:      ingestor,
		answerer:      answerer,
		logger:        slog.Default().With("component", "server"),
	}
}

// DocumentSummary is a document record plus its stored chunk count.
type DocumentSummary struct {
	*core.Document
	ChunkCount int `json:"chunk_count"`
}

func (h *Handler) summarize(ctx context.Context, doc *core.Document) *DocumentSummary {
	count, err := h.chunks.CountChunks(ctx, doc.Id)
	if err != nil {
		h.logger.Warn("failed to count chunks", "document_id", doc.Id, "error", err)
		count = 0
	}
	return &DocumentSummary{Document: doc, ChunkCount: count}
}

// UploadDocumentHandler accepts a multipart upload, stores the raw file,
// creates the document record, and kicks off ingestion in the background.
// The upload succeeds even when the processing trigger fails; the document
// then stays in the uploaded state until reprocessed.
func (h *Handler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, size, err := h.files.Save(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("failed to store uploaded file", "file_name", header.Filename, "error", err)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	doc := &core.Document{
		Id:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		FileName:    header.Filename,
		FilePath:    path,
		FileType:    header.Header.Get("Content-Type"),
		FileSize:    size,
		Status:      core.StatusUploaded,
	}

	doc, err = h.documents.AddDocument(r.Context(), doc)
	if err != nil {
		h.logger.Error("failed to create document record", "file_name", header.Filename, "error", err)
		if err := h.files.Delete(r.Context(), path); err != nil {
			h.logger.Warn("failed to remove orphaned file", "path", path, "error", err)
		}
		http.Error(w, "Failed to create document", http.StatusInternalServerError)
		return
	}

	if err := h.ingestor.ProcessAsync(doc.Id); err != nil {
		// The document stays uploaded; the operator can trigger
		// processing again via the process endpoint.
		h.logger.Warn("failed to trigger processing", "document_id", doc.Id, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

// ListDocumentsHandler returns all documents, newest first, with chunk counts.
func (h *Handler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		http.Error(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}

	summaries := make([]*DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, h.summarize(r.Context(), doc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// GetDocumentHandler returns a single document with its chunk count.
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.documents.GetDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get document", "document_id", documentID, "error", err)
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.summarize(r.Context(), doc))
}

// ProcessDocumentHandler triggers (re)processing of a document.
func (h *Handler) ProcessDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.documents.GetDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get document", "document_id", documentID, "error", err)
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}

	if doc.Status == core.StatusProcessing {
		http.Error(w, "Document is already being processed", http.StatusConflict)
		return
	}

	if err := h.ingestor.ProcessAsync(documentID); err != nil {
		h.logger.Error("failed to trigger processing", "document_id", documentID, "error", err)
		http.Error(w, "Failed to trigger processing", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
}

// DeleteDocumentHandler removes a document, its chunks, and its stored file.
func (h *Handler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.documents.GetDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get document", "document_id", documentID, "error", err)
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}

	if err := h.chunks.DeleteChunks(r.Context(), documentID); err != nil {
		h.logger.Error("failed to delete chunks", "document_id", documentID, "error", err)
		http.Error(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}

	if err := h.files.Delete(r.Context(), doc.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.Warn("failed to delete stored file", "path", doc.FilePath, "error", err)
	}

	if err := h.documents.DeleteDocument(r.Context(), documentID); err != nil {
		h.logger.Error("failed to delete document record", "document_id", documentID, "error", err)
		http.Error(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Response   string `json:"response"`
	ChunksUsed int    `json:"chunks_used"`
	Fallback   bool   `json:"fallback"`
}

// ChatHandler answers a customer question. Generation failures return a
// generic apology rather than an error payload.
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	answer, err := h.answerer.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuestion) {
			http.Error(w, "Message cannot be empty", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to answer question", "session_id", req.SessionID, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ChatResponse{Response: apologyMessage})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Response:   answer.Text,
		ChunksUsed: answer.ChunksUsed,
		Fallback:   answer.Fallback,
	})
}

// ListConversationsHandler returns the most recent conversation log entries.
func (h *Handler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	convs, err := h.conversations.GetRecentConversations(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(convs)
}
