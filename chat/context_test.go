package chat

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/practicalaiml/askdocs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(content string, score float32) *core.ScoredChunk {
	return &core.ScoredChunk{
		Chunk: &core.Chunk{
			Id:         core.IDFromContent(content),
			DocumentId: "doc-1",
			Content:    content,
		},
		Score: score,
	}
}

func TestNewAssemblerValidation(t *testing.T) {
	_, err := NewAssembler(0)
	assert.ErrorIs(t, err, ErrInvalidContextLimit)

	_, err = NewAssembler(-5)
	assert.ErrorIs(t, err, ErrInvalidContextLimit)

	a, err := NewAssembler(500)
	require.NoError(t, err)
	assert.Equal(t, 500, a.MaxChars())
}

func TestAssembleExcerpts(t *testing.T) {
	a := DefaultAssembler()

	chunks := []*core.ScoredChunk{
		scored("We transfer code ownership via GitHub.", 0.92),
		scored("Prototypes are delivered in the first two weeks.", 0.85),
	}

	context, used, fallback := a.Assemble(chunks)
	assert.False(t, fallback)
	assert.Equal(t, 2, used)
	assert.True(t, strings.HasPrefix(context, contextHeader))
	assert.Contains(t, context, "--- Excerpt 1 ---\nWe transfer code ownership via GitHub.")
	assert.Contains(t, context, "--- Excerpt 2 ---\nPrototypes are delivered in the first two weeks.")
}

func TestAssembleEmptyUsesFallback(t *testing.T) {
	a := DefaultAssembler()

	context, used, fallback := a.Assemble(nil)
	assert.True(t, fallback)
	assert.Equal(t, 0, used)
	assert.NotEmpty(t, context)
	assert.Contains(t, context, "support@practicalaiml.com.au")
}

func TestAssembleCapDropsLowestRanked(t *testing.T) {
	a, err := NewAssembler(100)
	require.NoError(t, err)

	chunks := []*core.ScoredChunk{
		scored(strings.Repeat("a", 60), 0.95),
		scored(strings.Repeat("b", 60), 0.90),
		scored(strings.Repeat("c", 60), 0.85),
	}

	context, used, fallback := a.Assemble(chunks)
	assert.False(t, fallback)
	assert.Equal(t, 1, used)
	assert.Contains(t, context, strings.Repeat("a", 60))
	assert.NotContains(t, context, "bbb")
	assert.NotContains(t, context, "ccc")
}

func TestAssembleTruncatesOversizedTopChunk(t *testing.T) {
	a, err := NewAssembler(50)
	require.NoError(t, err)

	chunks := []*core.ScoredChunk{scored(strings.Repeat("x", 200), 0.95)}

	context, used, fallback := a.Assemble(chunks)
	assert.False(t, fallback)
	assert.Equal(t, 1, used)
	assert.Contains(t, context, strings.Repeat("x", 50))
	assert.NotContains(t, context, strings.Repeat("x", 51))
}

func TestAssembleTruncationKeepsValidUTF8(t *testing.T) {
	// A cap that lands inside a multi-byte rune must back up to the
	// preceding rune boundary instead of emitting a broken sequence.
	a, err := NewAssembler(10)
	require.NoError(t, err)

	chunks := []*core.ScoredChunk{scored(strings.Repeat("日", 20), 0.95)}

	context, used, fallback := a.Assemble(chunks)
	assert.False(t, fallback)
	assert.Equal(t, 1, used)
	assert.True(t, utf8.ValidString(context))
	// 10 bytes falls mid-rune for 3-byte runes, so only 3 fit.
	assert.Contains(t, context, strings.Repeat("日", 3))
	assert.NotContains(t, context, strings.Repeat("日", 4))
}

func TestAssembleExcerptNumbering(t *testing.T) {
	a := DefaultAssembler()

	var chunks []*core.ScoredChunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, scored(fmt.Sprintf("excerpt body %d", i), float32(0.95)-float32(i)*0.01))
	}

	context, used, _ := a.Assemble(chunks)
	assert.Equal(t, 5, used)
	for i := 1; i <= 5; i++ {
		assert.Contains(t, context, fmt.Sprintf("--- Excerpt %d ---", i))
	}
}
