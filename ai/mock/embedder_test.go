package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTextDeterministic(t *testing.T) {
	m := NewMockEmbedder()

	a, err := m.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 384)
	assert.Equal(t, 2, m.CallCount())
}

func TestEmbedTextConcurrentCalls(t *testing.T) {
	// The ingestion pipeline embeds windows from multiple workers,
	// so the mock must tolerate concurrent callers.
	m := NewMockEmbedder()

	const calls = 50
	var wg sync.WaitGroup
	errs := make(chan error, calls)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EmbedText(context.Background(), "concurrent text")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, calls, m.CallCount())
}

func TestCompleterConcurrentCalls(t *testing.T) {
	m := NewMockCompleter()

	const calls = 20
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Complete(context.Background(), "system", "user")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, calls, m.CallCount())
}

func TestEmbedderReset(t *testing.T) {
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1}, nil
	}

	_, err := m.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, 1, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Nil(t, m.EmbedTextFunc)
}
