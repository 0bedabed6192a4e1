package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *HNSWIndex {
	t.Helper()
	idx, err := NewHNSWIndex(DefaultVectorIndexConfig(3))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedIndex(t *testing.T, idx *HNSWIndex) {
	t.Helper()
	err := idx.Insert(context.Background(),
		[]string{"c1", "c2", "c3"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
		[]VectorMeta{
			{DocumentID: "doc-1", Section: "Introduction"},
			{DocumentID: "doc-1", Section: "Methods"},
			{DocumentID: "doc-2", Section: "Methods"},
		})
	require.NoError(t, err)
}

func TestHNSWIndex_SearchReturnsNearest(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	hits, err := idx.Search(context.Background(), []float32{0.9, 0.1, 0}, 2, ChunkFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.05)
}

func TestHNSWIndex_SearchNormalizesMagnitude(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	// Scaled query must find the same neighbor as the unit query.
	hits, err := idx.Search(context.Background(), []float32{500, 0, 0}, 1, ChunkFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestHNSWIndex_SearchWithFilters(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3,
		ChunkFilters{DocumentID: "doc-2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)

	hits, err = idx.Search(context.Background(), []float32{1, 0, 0}, 3,
		ChunkFilters{Section: "Methods"})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestHNSWIndex_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Insert(context.Background(), []string{"c1"}, [][]float32{{1, 0}}, nil)
	assert.ErrorAs(t, err, &ErrDimensionMismatch{})

	_, err = idx.Search(context.Background(), []float32{1, 0}, 1, ChunkFilters{})
	assert.ErrorAs(t, err, &ErrDimensionMismatch{})
}

func TestHNSWIndex_InsertReplacesExistingID(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	err := idx.Insert(context.Background(), []string{"c1"},
		[][]float32{{0, 0, 1}}, []VectorMeta{{DocumentID: "doc-1"}})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())

	hits, err := idx.Search(context.Background(), []float32{0, 0, 1}, 1, ChunkFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestHNSWIndex_Delete(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.Delete(context.Background(), []string{"c1"}))
	assert.Equal(t, 2, idx.Count())

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3, ChunkFilters{})
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "c1", h.ChunkID)
	}
}

func TestHNSWIndex_DeleteByDocument(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.DeleteByDocument(context.Background(), "doc-1"))
	assert.Equal(t, 1, idx.Count())

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3, ChunkFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)
}

func TestHNSWIndex_SaveLoadRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	path := filepath.Join(t.TempDir(), IndexFileName)
	require.NoError(t, idx.Save(path))

	restored, err := NewHNSWIndex(DefaultVectorIndexConfig(3))
	require.NoError(t, err)
	defer func() { _ = restored.Close() }()
	require.NoError(t, restored.Load(path))

	assert.Equal(t, 3, restored.Count())
	hits, err := restored.Search(context.Background(), []float32{0, 1, 0}, 1, ChunkFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)

	// Filter metadata survives the round trip.
	hits, err = restored.Search(context.Background(), []float32{1, 0, 0}, 3,
		ChunkFilters{DocumentID: "doc-2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)
}

func TestHNSWIndex_ClosedIndexRejectsOperations(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Insert(context.Background(), []string{"c1"}, [][]float32{{1, 0, 0}}, nil))
	_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1, ChunkFilters{})
	assert.Error(t, err)
	assert.Zero(t, idx.Count())
}

func TestNewHNSWIndex_RequiresDimensions(t *testing.T) {
	_, err := NewHNSWIndex(VectorIndexConfig{})
	assert.Error(t, err)
}
