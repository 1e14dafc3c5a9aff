package search

import (
	"context"
	"errors"
	"testing"

	"github.com/practicalaiml/askdocs/ai/mock"
	"github.com/practicalaiml/askdocs/core"
	"github.com/practicalaiml/askdocs/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearchTest(t *testing.T) (*badger.Repositories, *mock.MockEmbedder) {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	return repos, mock.NewMockEmbedder()
}

func storeChunk(t *testing.T, repos *badger.Repositories, docID string, index int, content string, vector []float32) {
	t.Helper()

	chunks, err := repos.Chunks.GetChunksByDocument(context.Background(), docID)
	require.NoError(t, err)

	chunks = append(chunks, &core.Chunk{
		Id:         core.ChunkIDFor(docID, index, content),
		DocumentId: docID,
		Content:    content,
		ChunkIndex: index,
		Vector:     vector,
	})
	_, err = repos.Chunks.ReplaceChunks(context.Background(), docID, chunks)
	require.NoError(t, err)
}

func TestNewSearcherValidation(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	_, err := NewSearcher(nil, embedder)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewSearcher(repos.Chunks, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestSearcherDefaults(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	s, err := NewSearcher(repos.Chunks, embedder)
	require.NoError(t, err)
	assert.Equal(t, float32(DefaultThreshold), s.Threshold())
	assert.Equal(t, DefaultTopK, s.TopK())
}

func TestSearcherOptions(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	t.Run("custom threshold and topK", func(t *testing.T) {
		s, err := NewSearcher(repos.Chunks, embedder, WithThreshold(0.5), WithTopK(10))
		require.NoError(t, err)
		assert.Equal(t, float32(0.5), s.Threshold())
		assert.Equal(t, 10, s.TopK())
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := NewSearcher(repos.Chunks, embedder, WithThreshold(1.5))
		assert.Error(t, err)
	})

	t.Run("invalid topK", func(t *testing.T) {
		_, err := NewSearcher(repos.Chunks, embedder, WithTopK(0))
		assert.Error(t, err)
	})
}

func TestFindRelevant(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	storeChunk(t, repos, "doc-1", 0, "on topic", []float32{1, 0})
	storeChunk(t, repos, "doc-1", 1, "nearly on topic", []float32{0.9, 0.1})
	storeChunk(t, repos, "doc-1", 2, "off topic", []float32{0, 1})

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	s, err := NewSearcher(repos.Chunks, embedder)
	require.NoError(t, err)

	results, err := s.FindRelevant(context.Background(), "what is the topic?")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "on topic", results[0].Chunk.Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFindRelevantEmptyStore(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	s, err := NewSearcher(repos.Chunks, embedder)
	require.NoError(t, err)

	results, err := s.FindRelevant(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindRelevantTopKLimit(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	for i := 0; i < 5; i++ {
		storeChunk(t, repos, "doc-1", i, "content "+string(rune('a'+i)), []float32{1, 0})
	}

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	s, err := NewSearcher(repos.Chunks, embedder, WithTopK(2))
	require.NoError(t, err)

	results, err := s.FindRelevant(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindRelevantEmbeddingFailure(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("service down")
	}

	s, err := NewSearcher(repos.Chunks, embedder)
	require.NoError(t, err)

	_, err = s.FindRelevant(context.Background(), "query")
	assert.ErrorIs(t, err, ErrSearchFailed)
}

type recordingMonitor struct {
	started   string
	embedded  bool
	finished  int
}

func (m *recordingMonitor) Start(query string)                  { m.started = query }
func (m *recordingMonitor) AfterQueryEmbedding(_ []float32)     { m.embedded = true }
func (m *recordingMonitor) Finish(results []*core.ScoredChunk)  { m.finished = len(results) }

func TestFindRelevantWithMonitor(t *testing.T) {
	repos, embedder := setupSearchTest(t)

	storeChunk(t, repos, "doc-1", 0, "hit", []float32{1, 0})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	s, err := NewSearcher(repos.Chunks, embedder)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := s.FindRelevantWithMonitor(context.Background(), "q", monitor)
	require.NoError(t, err)

	assert.Equal(t, "q", monitor.started)
	assert.True(t, monitor.embedded)
	assert.Equal(t, len(results), monitor.finished)
}
