package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris-ai/scholaris/internal/chunk"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), MetadataFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDocument(id, title string) *Document {
	return &Document{
		ID:          id,
		Title:       title,
		Source:      "/papers/" + id + ".md",
		ContentHash: "hash-" + id,
		ChunkCount:  2,
	}
}

func testChunks(docID string) []*chunk.Chunk {
	return []*chunk.Chunk{
		{
			ID:         docID + "-c0",
			DocumentID: docID,
			ChunkIndex: 0,
			Content:    "First chunk content.",
			TokenCount: 4,
			Section:    "Introduction",
			PageNumber: 1,
			EndChar:    20,
			Embedding:  []float32{0.1, 0.2, 0.3},
			Metadata:   map[string]string{"lang": "en"},
		},
		{
			ID:         docID + "-c1",
			DocumentID: docID,
			ChunkIndex: 1,
			Content:    "Second chunk content.",
			TokenCount: 4,
			Section:    "Methods",
			StartChar:  21,
			EndChar:    42,
		},
	}
}

func TestSQLiteStore_DocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1", "Attention Is All You Need")
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.Equal(t, 2, got.ChunkCount)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteStore_SaveDocumentUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1", "Original Title")
	require.NoError(t, s.SaveDocument(ctx, doc))
	created := doc.CreatedAt

	doc.Title = "Revised Title"
	doc.ContentHash = "new-hash"
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Revised Title", got.Title)
	assert.Equal(t, "new-hash", got.ContentHash)
	assert.Equal(t, created.Unix(), got.CreatedAt.Unix())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestSQLiteStore_GetDocumentMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteStore_ListDocumentsOrderedByTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Zebra Stripes")))
	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-2", "Attention Networks")))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Attention Networks", docs[0].Title)
	assert.Equal(t, "Zebra Stripes", docs[1].Title)
}

func TestSQLiteStore_ChunkRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))

	got, err := s.GetChunk(ctx, "doc-1-c0")
	require.NoError(t, err)
	assert.Equal(t, "First chunk content.", got.Content)
	assert.Equal(t, "Introduction", got.Section)
	assert.Equal(t, 1, got.PageNumber)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
	assert.Equal(t, map[string]string{"lang": "en"}, got.Metadata)

	// Second chunk has no embedding or metadata.
	got, err = s.GetChunk(ctx, "doc-1-c1")
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
	assert.Nil(t, got.Metadata)
}

func TestSQLiteStore_SaveChunksRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))
	assert.Error(t, s.SaveChunks(ctx, testChunks("doc-1")))
}

func TestSQLiteStore_GetChunksBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))

	chunks, err := s.GetChunks(ctx, []string{"doc-1-c1", "doc-1-c0", "missing"})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestSQLiteStore_ListChunksFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper A")))
	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-2", "Paper B")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-2")))

	all, err := s.ListChunks(ctx, ChunkFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byDoc, err := s.ListChunks(ctx, ChunkFilters{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	bySection, err := s.ListChunks(ctx, ChunkFilters{Section: "Methods"})
	require.NoError(t, err)
	assert.Len(t, bySection, 2)

	byBoth, err := s.ListChunks(ctx, ChunkFilters{DocumentID: "doc-2", Section: "Methods"})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, "doc-2-c1", byBoth[0].ID)

	bySet, err := s.ListChunks(ctx, ChunkFilters{DocumentIDs: []string{"doc-1", "doc-2"}})
	require.NoError(t, err)
	assert.Len(t, bySet, 4)
}

func TestSQLiteStore_ListChunksOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))

	chunks, err := s.ListChunks(ctx, ChunkFilters{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestSQLiteStore_DeleteChunksByDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))
	require.NoError(t, s.DeleteChunksByDocument(ctx, "doc-1"))

	chunks, err := s.ListChunks(ctx, ChunkFilters{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Re-ingesting the same ids now succeeds.
	assert.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))
}

func TestSQLiteStore_DeleteDocumentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDocument("doc-1", "Paper")))
	require.NoError(t, s.SaveChunks(ctx, testChunks("doc-1")))
	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))

	chunks, err := s.ListChunks(ctx, ChunkFilters{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	v := []float32{0.0, -1.5, 3.25, 1e-7}
	assert.Equal(t, v, decodeEmbedding(encodeEmbedding(v)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding([]byte{1, 2, 3}))
}
