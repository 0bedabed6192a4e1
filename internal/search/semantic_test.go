package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris-ai/scholaris/internal/embed"
	"github.com/scholaris-ai/scholaris/internal/store"
)

// fakeEmbedder returns a fixed query vector.
type fakeEmbedder struct {
	vector []float32
	err    error
}

var _ embed.Embedder = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vector, f.err }
func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}
func (f *fakeEmbedder) Dimensions() int                { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) Available(context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                   { return nil }

// fakeVectorIndex returns canned hits and records the search call.
type fakeVectorIndex struct {
	hits       []*store.VectorHit
	err        error
	gotTopK    int
	gotFilters store.ChunkFilters
}

var _ store.VectorIndex = (*fakeVectorIndex)(nil)

func (f *fakeVectorIndex) Insert(context.Context, []string, [][]float32, []store.VectorMeta) error {
	return nil
}

func (f *fakeVectorIndex) Search(_ context.Context, _ []float32, topK int, filters store.ChunkFilters) ([]*store.VectorHit, error) {
	f.gotTopK = topK
	f.gotFilters = filters
	return f.hits, f.err
}

func (f *fakeVectorIndex) Delete(context.Context, []string) error           { return nil }
func (f *fakeVectorIndex) DeleteByDocument(context.Context, string) error   { return nil }
func (f *fakeVectorIndex) Count() int                                       { return len(f.hits) }
func (f *fakeVectorIndex) Save(string) error                                { return nil }
func (f *fakeVectorIndex) Load(string) error                                { return nil }
func (f *fakeVectorIndex) Close() error                                     { return nil }

func TestSemanticRetriever_HydratesHitsInIndexOrder(t *testing.T) {
	index := &fakeVectorIndex{hits: []*store.VectorHit{
		{ChunkID: "c3", Similarity: 0.92},
		{ChunkID: "c1", Similarity: 0.81},
	}}
	r := NewSemanticRetriever(&fakeEmbedder{vector: []float32{1, 0}}, index, newTestKeywordStore(), nil)

	results, err := r.Retrieve(context.Background(), "protein folding", 5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "c3", results[0].ChunkID)
	assert.Equal(t, 0.92, results[0].Score)
	assert.Equal(t, "Protein Folding", results[0].DocumentTitle)
	assert.Equal(t, "c1", results[1].ChunkID)
	assert.Equal(t, 5, index.gotTopK)
}

func TestSemanticRetriever_PassesFiltersToIndex(t *testing.T) {
	index := &fakeVectorIndex{}
	r := NewSemanticRetriever(&fakeEmbedder{vector: []float32{1, 0}}, index, newTestKeywordStore(), nil)

	_, err := r.Retrieve(context.Background(), "q", 3, Filters{DocumentID: "doc-1", Section: "Methods"})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", index.gotFilters.DocumentID)
	assert.Equal(t, "Methods", index.gotFilters.Section)
}

func TestSemanticRetriever_DropsHitsMissingFromMetadata(t *testing.T) {
	index := &fakeVectorIndex{hits: []*store.VectorHit{
		{ChunkID: "c1", Similarity: 0.9},
		{ChunkID: "gone", Similarity: 0.8},
	}}
	r := NewSemanticRetriever(&fakeEmbedder{vector: []float32{1, 0}}, index, newTestKeywordStore(), nil)

	results, err := r.Retrieve(context.Background(), "q", 5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestSemanticRetriever_EmbedFailureSurfaces(t *testing.T) {
	r := NewSemanticRetriever(&fakeEmbedder{err: errors.New("model offline")}, &fakeVectorIndex{}, newTestKeywordStore(), nil)

	_, err := r.Retrieve(context.Background(), "q", 5, Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}

func TestSemanticRetriever_NoHitsReturnsNil(t *testing.T) {
	r := NewSemanticRetriever(&fakeEmbedder{vector: []float32{1, 0}}, &fakeVectorIndex{}, newTestKeywordStore(), nil)

	results, err := r.Retrieve(context.Background(), "q", 5, Filters{})
	require.NoError(t, err)
	assert.Nil(t, results)
}
