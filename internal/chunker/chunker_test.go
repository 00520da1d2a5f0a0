package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/chunker"
)

func TestChunk_ShorterThanMaxCharsReturnsSingleChunk(t *testing.T) {
	text := "a short loan document body."
	chunks := chunker.Chunk(text, chunker.DefaultOptions())

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[0].EndChar)
	assert.Equal(t, text, chunks[0].Text)
}

func TestChunk_ExactlyAtMaxCharsReturnsSingleChunk(t *testing.T) {
	opts := chunker.Options{MaxChars: 100, OverlapChars: 20}
	text := strings.Repeat("x", 100)

	chunks := chunker.Chunk(text, opts)

	require.Len(t, chunks, 1)
	assert.Equal(t, 100, chunks[0].EndChar-chunks[0].StartChar)
}

func TestChunk_CoverageTotalMatchesTextLength(t *testing.T) {
	opts := chunker.Options{MaxChars: 100, OverlapChars: 20}

	lengths := []int{0, 1, 99, 100, 101, 250, 347, 1000}
	for _, n := range lengths {
		text := strings.Repeat("a", n)
		chunks := chunker.Chunk(text, opts)
		assert.Equal(t, n, chunker.CoverageTotal(chunks), "coverage mismatch for text length %d", n)
	}
}

func TestChunk_CoverageTotalWithParagraphBreaks(t *testing.T) {
	opts := chunker.Options{MaxChars: 50, OverlapChars: 10}
	para := strings.Repeat("word ", 8) + "\n\n"
	text := strings.Repeat(para, 20)

	chunks := chunker.Chunk(text, opts)
	assert.Equal(t, len(text), chunker.CoverageTotal(chunks))
}

func TestChunk_MultipleChunksAreOrderedAndOverlap(t *testing.T) {
	opts := chunker.Options{MaxChars: 100, OverlapChars: 20}
	text := strings.Repeat("b", 347)

	chunks := chunker.Chunk(text, opts)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(chunks), c.Total)
		assert.Equal(t, text[c.StartChar:c.EndChar], c.Text)
	}

	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i-1].EndChar-chunks[i].StartChar, opts.MaxChars,
			"overlap should be smaller than the window")
		assert.GreaterOrEqual(t, chunks[i-1].EndChar, chunks[i].StartChar,
			"chunk %d should overlap or directly abut chunk %d", i-1, i)
	}

	last := chunks[len(chunks)-1]
	assert.Equal(t, len(text), last.EndChar)
}

func TestChunk_PrefersParagraphBreakOverHardCut(t *testing.T) {
	opts := chunker.Options{MaxChars: 60, OverlapChars: 10}
	// Paragraph break sits inside the last 20% search window ahead of the
	// hard cut at offset 60.
	text := strings.Repeat("w", 55) + "\n\n" + strings.Repeat("z", 100)

	chunks := chunker.Chunk(text, opts)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 57, chunks[0].EndChar, "expected the chunk to end right after the paragraph break")
}

func TestChunk_InvalidOptionsFallBackToDefaults(t *testing.T) {
	text := strings.Repeat("c", 500)

	chunks := chunker.Chunk(text, chunker.Options{MaxChars: 0, OverlapChars: 0})
	assert.Equal(t, len(text), chunker.CoverageTotal(chunks))

	chunks = chunker.Chunk(text, chunker.Options{MaxChars: 100, OverlapChars: 150})
	assert.Equal(t, len(text), chunker.CoverageTotal(chunks))
}
