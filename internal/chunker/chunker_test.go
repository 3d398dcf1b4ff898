package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/models"
)

func mustChunker(t *testing.T, opts Options) *Chunker {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

// letters returns n chars of cycling letters with no whitespace and no
// sentence punctuation, so window arithmetic is exact.
func letters(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[i%len(alphabet)])
	}
	return sb.String()
}

func TestChunkPages_ShortTextSingleChunk(t *testing.T) {
	c := mustChunker(t, Options{ChunkSize: 1000, ChunkOverlap: 200})

	chunks, err := c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: "Just a short page."}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Just a short page.", chunks[0].Text)
	assert.Equal(t, "doc.pdf", chunks[0].Source)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunkPages_CountMatchesFormula(t *testing.T) {
	const (
		size    = 1000
		overlap = 200
		step    = size - overlap
	)
	c := mustChunker(t, Options{ChunkSize: size, ChunkOverlap: overlap})

	for _, length := range []int{2600, 5000, 1001} {
		text := letters(length)
		chunks, err := c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: text}})
		require.NoError(t, err)

		want := (length - overlap + step - 1) / step // ceil((L-overlap)/step)
		assert.Len(t, chunks, want, "length %d", length)

		for i, ch := range chunks {
			assert.LessOrEqual(t, len(ch.Text), size)
			assert.Equal(t, i, ch.Index)
			assert.NotEmpty(t, ch.Text)
		}
	}
}

func TestChunkPages_ExactOverlapWithoutBoundaryAdjustment(t *testing.T) {
	const (
		size    = 1000
		overlap = 200
	)
	c := mustChunker(t, Options{ChunkSize: size, ChunkOverlap: overlap})

	text := letters(2600)
	chunks, err := c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		suffix := prev[len(prev)-overlap:]
		assert.True(t, strings.HasPrefix(chunks[i].Text, suffix),
			"chunk %d does not repeat the %d-char suffix of its predecessor", i, overlap)
	}
}

func TestChunkPages_RetractsToSentenceBoundary(t *testing.T) {
	c := mustChunker(t, Options{ChunkSize: 1000, ChunkOverlap: 200, SentenceLookback: 100})

	// a period 40 chars inside the look-back window of the first cut
	text := letters(960) + "." + letters(500)
	chunks, err := c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Len(t, chunks[0].Text, 961)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "."))
}

func TestChunkPages_HardCutWhenNoBoundaryInLookback(t *testing.T) {
	c := mustChunker(t, Options{ChunkSize: 1000, ChunkOverlap: 200, SentenceLookback: 100})

	// the only period is outside the look-back window
	text := letters(500) + "." + letters(1200)
	chunks, err := c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: text}})
	require.NoError(t, err)

	assert.Len(t, chunks[0].Text, 1000)
}

func TestChunkPages_PageAttribution(t *testing.T) {
	c := mustChunker(t, Options{ChunkSize: 1000, ChunkOverlap: 200})

	pages := []models.Page{
		{Number: 1, Text: letters(900)},
		{Number: 2, Text: "   \n\t  "}, // dropped
		{Number: 3, Text: letters(1200)},
	}
	chunks, err := c.ChunkPages("doc.pdf", pages)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// concatenated text is 900 + " " + 1200 chars: the first chunk starts on
	// page 1, a chunk starting past offset 900 belongs to page 3
	assert.Equal(t, 1, chunks[0].Page)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 3, last.Page)
	for _, ch := range chunks {
		assert.NotEqual(t, 2, ch.Page, "whitespace-only page must not be attributed")
	}
}

func TestChunkPages_EmptyDocument(t *testing.T) {
	c := mustChunker(t, Options{ChunkSize: 1000, ChunkOverlap: 200})

	_, err := c.ChunkPages("doc.pdf", nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = c.ChunkPages("doc.pdf", []models.Page{{Number: 1, Text: "  \n  "}})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestNew_RejectsOverlapNotSmallerThanSize(t *testing.T) {
	_, err := New(Options{ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)

	_, err = New(Options{ChunkSize: 100, ChunkOverlap: 150})
	assert.Error(t, err)
}

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", cleanText(" a\n\tb   c \n"))
}
