package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris-ai/scholaris/internal/chunk"
	"github.com/scholaris-ai/scholaris/internal/embed"
	"github.com/scholaris-ai/scholaris/internal/store"
)

// hashEmbedder produces deterministic small vectors without a server.
type hashEmbedder struct{}

var _ embed.Embedder = hashEmbedder{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	var sum int
	for _, r := range text {
		sum += int(r)
	}
	return []float32{float32(sum%97) + 1, float32(len(text)%89) + 1, 1}, nil
}

func (h hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = h.Embed(ctx, t)
	}
	return out, nil
}

func (hashEmbedder) Dimensions() int                { return 3 }
func (hashEmbedder) ModelName() string              { return "hash-embedder" }
func (hashEmbedder) Available(context.Context) bool { return true }
func (hashEmbedder) Close() error                   { return nil }

func newTestIngestor(t *testing.T) (*Ingestor, store.MetadataStore, store.VectorIndex, string) {
	t.Helper()
	dataDir := t.TempDir()

	meta, err := store.NewSQLiteStore(filepath.Join(dataDir, store.MetadataFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	index, err := store.NewHNSWIndex(store.DefaultVectorIndexConfig(3))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	chunker, err := chunk.NewChunker(64, 10)
	require.NoError(t, err)

	g := NewIngestor(dataDir, meta, index, hashEmbedder{}, chunker, nil, nil)
	return g, meta, index, dataDir
}

const paperText = `Abstract

Attention mechanisms let models weigh input tokens by relevance. This work studies their scaling behavior in long documents.

Introduction

Sequence models struggled with long-range dependencies. Attention removed the recurrence bottleneck entirely.

Methods

We measure retrieval quality across chunk sizes. Each configuration runs on the same corpus.`

func TestIngest_StoresDocumentChunksAndVectors(t *testing.T) {
	g, meta, index, dataDir := newTestIngestor(t)
	ctx := context.Background()

	stats, err := g.Ingest(ctx, "attention-paper", "/papers/attention.md", paperText)
	require.NoError(t, err)
	assert.False(t, stats.Skipped)
	assert.Positive(t, stats.Chunks)

	doc, err := meta.GetDocument(ctx, stats.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "attention-paper", doc.Title)
	assert.Equal(t, stats.Chunks, doc.ChunkCount)
	assert.NotEmpty(t, doc.ContentHash)

	chunks, err := meta.ListChunks(ctx, store.ChunkFilters{DocumentID: stats.DocumentID})
	require.NoError(t, err)
	assert.Len(t, chunks, stats.Chunks)
	assert.Equal(t, stats.Chunks, index.Count())

	// Section headings were detected and attached.
	sections := make(map[string]bool)
	for _, c := range chunks {
		sections[c.Section] = true
	}
	assert.True(t, sections["Abstract"])
	assert.True(t, sections["Methods"])

	// Index snapshot was written.
	_, err = os.Stat(filepath.Join(dataDir, store.IndexFileName))
	assert.NoError(t, err)
}

func TestIngest_UnchangedContentSkipped(t *testing.T) {
	g, _, _, _ := newTestIngestor(t)
	ctx := context.Background()

	first, err := g.Ingest(ctx, "paper", "/p.md", paperText)
	require.NoError(t, err)

	second, err := g.Ingest(ctx, "paper", "/p.md", paperText)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, first.Chunks, second.Chunks)
}

func TestIngest_LineEndingsDoNotChangeHash(t *testing.T) {
	g, _, _, _ := newTestIngestor(t)
	ctx := context.Background()

	_, err := g.Ingest(ctx, "paper", "/p.md", "Some content here.\nSecond line.")
	require.NoError(t, err)

	stats, err := g.Ingest(ctx, "paper", "/p.md", "Some content here.\r\nSecond line.\r\n")
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
}

func TestIngest_ChangedContentReplacesChunks(t *testing.T) {
	g, meta, _, _ := newTestIngestor(t)
	ctx := context.Background()

	first, err := g.Ingest(ctx, "paper", "/p.md", paperText)
	require.NoError(t, err)

	second, err := g.Ingest(ctx, "paper", "/p.md", "Entirely new content for this document.")
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	chunks, err := meta.ListChunks(ctx, store.ChunkFilters{DocumentID: first.DocumentID})
	require.NoError(t, err)
	require.Len(t, chunks, second.Chunks)
	for _, c := range chunks {
		assert.Contains(t, c.Content, "Entirely new content")
	}
}

func TestIngest_EmptyDocumentRejected(t *testing.T) {
	g, _, _, _ := newTestIngestor(t)
	_, err := g.Ingest(context.Background(), "paper", "/p.md", "  \n ")
	assert.Error(t, err)
}

func TestIngestFile_TitleFromFilename(t *testing.T) {
	g, meta, _, _ := newTestIngestor(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "protein-folding.md")
	require.NoError(t, os.WriteFile(path, []byte(paperText), 0o644))

	stats, err := g.IngestFile(ctx, path)
	require.NoError(t, err)

	doc, err := meta.GetDocument(ctx, stats.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "protein-folding", doc.Title)
	assert.Equal(t, path, doc.Source)
}

func TestDelete_RemovesEverything(t *testing.T) {
	g, meta, index, _ := newTestIngestor(t)
	ctx := context.Background()

	stats, err := g.Ingest(ctx, "paper", "/p.md", paperText)
	require.NoError(t, err)

	require.NoError(t, g.Delete(ctx, stats.DocumentID))

	chunks, err := meta.ListChunks(ctx, store.ChunkFilters{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, index.Count())

	docs, err := meta.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb", normalize("a\r\nb\r\n"))
	assert.Equal(t, "a\nb", normalize("a\rb\n\t "))
}

func TestContentHash_Stable(t *testing.T) {
	assert.Equal(t, contentHash("text"), contentHash("text"))
	assert.NotEqual(t, contentHash("text"), contentHash("other"))
}
