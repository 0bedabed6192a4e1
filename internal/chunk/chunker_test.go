package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	require.NoError(t, err)
	return c
}

// repeatedSentences builds text with n distinct short sentences.
func repeatedSentences(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "This is sentence number %d about transformers. ", i)
	}
	return strings.TrimSpace(sb.String())
}

func TestNewChunker_OverlapMustBeSmaller(t *testing.T) {
	_, err := NewChunker(100, 100)
	assert.Error(t, err)

	_, err = NewChunker(100, 150)
	assert.Error(t, err)
}

func TestNewChunker_ZeroValuesUseDefaults(t *testing.T) {
	c, err := NewChunker(0, -1)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.chunkOverlap)
}

func TestChunk_EmptyDocument(t *testing.T) {
	c := mustChunker(t, 100, 10)
	chunks, err := c.Chunk("doc-1", "   \n\t ", nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_SmallDocumentSingleChunk(t *testing.T) {
	c := mustChunker(t, 512, 50)
	text := "Transformers use attention. They scale well."

	chunks, err := c.Chunk("doc-1", text, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ck := chunks[0]
	assert.Equal(t, 0, ck.ChunkIndex)
	assert.Equal(t, "doc-1", ck.DocumentID)
	assert.Equal(t, text, ck.Content)
	assert.Positive(t, ck.TokenCount)
	assert.Empty(t, ck.Section)
}

func TestChunk_RespectsTokenBudget(t *testing.T) {
	c := mustChunker(t, 50, 10)
	text := repeatedSentences(40)

	chunks, err := c.Chunk("doc-1", text, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ck := range chunks {
		assert.LessOrEqual(t, ck.TokenCount, 50, "chunk %d over budget", ck.ChunkIndex)
	}
}

func TestChunk_ConsecutiveChunksOverlap(t *testing.T) {
	c := mustChunker(t, 50, 15)
	text := repeatedSentences(40)

	chunks, err := c.Chunk("doc-1", text, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		cur := chunks[i].Content
		// The next chunk starts with trailing sentences of the previous.
		firstSentence := splitSentences(cur)[0]
		assert.Contains(t, prev, firstSentence,
			"chunk %d does not share its opening sentence with chunk %d", i, i-1)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := mustChunker(t, 50, 10)
	text := repeatedSentences(30)

	first, err := c.Chunk("doc-1", text, nil)
	require.NoError(t, err)
	second, err := c.Chunk("doc-1", text, nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestChunk_SectionsNeverSpan(t *testing.T) {
	c := mustChunker(t, 50, 10)
	sections := []Section{
		{Name: "Introduction", Content: repeatedSentences(20)},
		{Name: "Methods", Content: repeatedSentences(20), Page: 3},
	}

	chunks, err := c.Chunk("doc-1", "placeholder", sections)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for _, ck := range chunks {
		assert.Contains(t, []string{"Introduction", "Methods"}, ck.Section)
	}

	// Indices are global across sections.
	for i, ck := range chunks {
		assert.Equal(t, i, ck.ChunkIndex)
	}

	// Page carries from the section.
	var sawMethodsPage bool
	for _, ck := range chunks {
		if ck.Section == "Methods" {
			assert.Equal(t, 3, ck.PageNumber)
			sawMethodsPage = true
		}
	}
	assert.True(t, sawMethodsPage)
}

func TestChunkID_StableAndDistinct(t *testing.T) {
	assert.Equal(t, ChunkID("doc-1", 0), ChunkID("doc-1", 0))
	assert.NotEqual(t, ChunkID("doc-1", 0), ChunkID("doc-1", 1))
	assert.NotEqual(t, ChunkID("doc-1", 0), ChunkID("doc-2", 0))
	assert.Len(t, ChunkID("doc-1", 0), 16)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "basic boundaries",
			input: "First sentence. Second sentence! Third sentence?",
			want:  []string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			name:  "no split before lowercase",
			input: "Results from e.g. the baseline improved.",
			want:  []string{"Results from e.g. the baseline improved."},
		},
		{
			name:  "terminator run",
			input: "Wait... Really? Yes.",
			want:  []string{"Wait...", "Really?", "Yes."},
		},
		{
			name:  "newline boundary",
			input: "First paragraph ends.\nNext paragraph starts.",
			want:  []string{"First paragraph ends.", "Next paragraph starts."},
		},
		{
			name:  "no terminator",
			input: "a single fragment without ending",
			want:  []string{"a single fragment without ending"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.input))
		})
	}
}

func TestCountTokens(t *testing.T) {
	n, err := CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountTokens("")
	require.NoError(t, err)
	assert.Zero(t, n)
}
