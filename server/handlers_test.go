package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/practicalaiml/askdocs/chat"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage"
	"github.com/practicalaiml/askdocs/storage/badger"
	"github.com/practicalaiml/askdocs/storage/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIngestor records processing triggers.
type stubIngestor struct {
	processed []string
	failWith  error
}

func (s *stubIngestor) Process(ctx context.Context, documentID string) error {
	s.processed = append(s.processed, documentID)
	return s.failWith
}

func (s *stubIngestor) ProcessAsync(documentID string) error {
	s.processed = append(s.processed, documentID)
	return s.failWith
}

// stubAnswerer returns a canned answer or error.
type stubAnswerer struct {
	answer      *chat.Answer
	err         error
	lastSession string
	lastMessage string
}

func (s *stubAnswerer) Respond(ctx context.Context, sessionID, question string) (*chat.Answer, error) {
	s.lastSession = sessionID
	s.lastMessage = question
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type serverFixture struct {
	repos    *badger.Repositories
	files    storage.FileStore
	ingestor *stubIngestor
	answerer *stubAnswerer
	router   http.Handler
}

func setupServerTest(t *testing.T) *serverFixture {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	files, err := disk.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := &serverFixture{
		repos:    repos,
		files:    files,
		ingestor: &stubIngestor{},
		answerer: &stubAnswerer{answer: &chat.Answer{Text: "canned answer", ChunksUsed: 2}},
	}
	f.router = NewRouter(NewHandler(
		repos.Documents, repos.Chunks, repos.Conversations, files, f.ingestor, f.answerer))
	return f
}

func (f *serverFixture) addDocument(t *testing.T, name string) *core.Document {
	t.Helper()

	path, _, err := f.files.Save(context.Background(), name+".txt", strings.NewReader("stored body"))
	require.NoError(t, err)

	doc, err := f.repos.Documents.AddDocument(context.Background(), &core.Document{
		Id:       uuid.New().String(),
		Title:    name,
		FileName: name + ".txt",
		FilePath: path,
		FileType: "text/plain",
		Status:   core.StatusUploaded,
	})
	require.NoError(t, err)
	return doc
}

func multipartUpload(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	f := setupServerTest(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := setupServerTest(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-client-info")
}

func TestUploadDocument(t *testing.T) {
	f := setupServerTest(t)

	body, contentType := multipartUpload(t, "services.md", "We build prototypes first.", map[string]string{
		"title":       "Services overview",
		"description": "What we offer",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc core.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.NotEmpty(t, doc.Id)
	assert.Equal(t, "Services overview", doc.Title)
	assert.Equal(t, "services.md", doc.FileName)
	assert.Equal(t, core.StatusUploaded, doc.Status)

	// The raw file landed in the file store.
	reader, err := f.files.Open(context.Background(), doc.FilePath)
	require.NoError(t, err)
	defer reader.Close()
	stored, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "We build prototypes first.", string(stored))

	// Processing was triggered.
	assert.Equal(t, []string{doc.Id}, f.ingestor.processed)
}

func TestUploadDocumentDefaultsTitleToFileName(t *testing.T) {
	f := setupServerTest(t)

	body, contentType := multipartUpload(t, "faq.txt", "Q and A", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var doc core.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "faq.txt", doc.Title)
}

func TestUploadDocumentMissingFile(t *testing.T) {
	f := setupServerTest(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSucceedsWhenTriggerFails(t *testing.T) {
	f := setupServerTest(t)
	f.ingestor.failWith = errors.New("pool exhausted")

	body, contentType := multipartUpload(t, "doc.txt", "content", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListDocuments(t *testing.T) {
	f := setupServerTest(t)
	f.addDocument(t, "first")
	f.addDocument(t, "second")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var docs []*DocumentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 2)
}

func TestGetDocumentWithChunkCount(t *testing.T) {
	f := setupServerTest(t)
	doc := f.addDocument(t, "with-chunks")

	chunks := []*core.Chunk{
		{Id: core.ChunkIDFor(doc.Id, 0, "a"), DocumentId: doc.Id, Content: "a", ChunkIndex: 0},
		{Id: core.ChunkIDFor(doc.Id, 1, "b"), DocumentId: doc.Id, Content: "b", ChunkIndex: 1},
	}
	_, err := f.repos.Chunks.ReplaceChunks(context.Background(), doc.Id, chunks)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.Id, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary DocumentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, doc.Id, summary.Id)
	assert.Equal(t, 2, summary.ChunkCount)
}

func TestGetDocumentNotFound(t *testing.T) {
	f := setupServerTest(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.New().String(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessDocument(t *testing.T) {
	f := setupServerTest(t)
	doc := f.addDocument(t, "reprocess-me")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/process", doc.Id), nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{doc.Id}, f.ingestor.processed)
}

func TestProcessDocumentConflictWhileProcessing(t *testing.T) {
	f := setupServerTest(t)
	doc := f.addDocument(t, "busy")

	_, err := f.repos.Documents.MarkProcessing(context.Background(), doc.Id)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/documents/%s/process", doc.Id), nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.ingestor.processed)
}

func TestDeleteDocumentCascades(t *testing.T) {
	f := setupServerTest(t)
	doc := f.addDocument(t, "doomed")

	chunks := []*core.Chunk{
		{Id: core.ChunkIDFor(doc.Id, 0, "x"), DocumentId: doc.Id, Content: "x", ChunkIndex: 0},
	}
	_, err := f.repos.Chunks.ReplaceChunks(context.Background(), doc.Id, chunks)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.Id, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = f.repos.Documents.GetDocument(context.Background(), doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := f.repos.Chunks.CountChunks(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = f.files.Open(context.Background(), doc.FilePath)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChatEndpoint(t *testing.T) {
	f := setupServerTest(t)

	body := `{"message": "What services do you offer?", "session_id": "session-1"}`
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "canned answer", resp.Response)
	assert.Equal(t, 2, resp.ChunksUsed)
	assert.Equal(t, "session-1", f.answerer.lastSession)
	assert.Equal(t, "What services do you offer?", f.answerer.lastMessage)
}

func TestChatEndpointEmptyMessage(t *testing.T) {
	f := setupServerTest(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "  "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointGenerationFailure(t *testing.T) {
	f := setupServerTest(t)
	f.answerer.err = errors.New("model quota exceeded")

	body := `{"message": "Anything?", "session_id": "session-1"}`
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apologyMessage, resp.Response)
}

func TestListConversations(t *testing.T) {
	f := setupServerTest(t)

	for i := 0; i < 3; i++ {
		_, err := f.repos.Conversations.AddConversation(context.Background(), &core.Conversation{
			SessionId:  "session-1",
			Question:   fmt.Sprintf("question %d", i),
			Answer:     "answer",
			ChunksUsed: 1,
		})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations?limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var convs []*core.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 2)
	assert.Equal(t, "question 2", convs[0].Question, "newest first")
}

func TestListConversationsInvalidLimit(t *testing.T) {
	f := setupServerTest(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations?limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
