package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records how many texts hit the backend.
type countingEmbedder struct {
	embedCalls int
	batchTexts []string
	err        error
}

var _ Embedder = (*countingEmbedder)(nil)

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.embedCalls++
	return []float32{float32(len(text)), 1}, nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.batchTexts = append(e.batchTexts, texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *countingEmbedder) Dimensions() int                { return 2 }
func (e *countingEmbedder) ModelName() string              { return "counting-model" }
func (e *countingEmbedder) Available(context.Context) bool { return true }
func (e *countingEmbedder) Close() error                   { return nil }

func TestCachedEmbedder_EmbedHitsCacheOnRepeat(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)

	first, err := c.Embed(context.Background(), "attention")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "attention")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_BatchForwardsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "cached")
	require.NoError(t, err)

	results, err := c.EmbedBatch(context.Background(), []string{"cached", "fresh-one", "fresh-two"})
	require.NoError(t, err)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Len(t, r, 2)
	}
	assert.Equal(t, []string{"fresh-one", "fresh-two"}, inner.batchTexts)
}

func TestCachedEmbedder_BatchAllCachedSkipsBackend(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)

	_, err = c.EmbedBatch(context.Background(), []string{"a1", "b2"})
	require.NoError(t, err)
	inner.batchTexts = nil

	_, err = c.EmbedBatch(context.Background(), []string{"a1", "b2"})
	require.NoError(t, err)
	assert.Empty(t, inner.batchTexts)
}

func TestCachedEmbedder_EvictionRefetches(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 1)
	require.NoError(t, err)

	_, _ = c.Embed(context.Background(), "first")
	_, _ = c.Embed(context.Background(), "second") // evicts "first"
	_, _ = c.Embed(context.Background(), "first")

	assert.Equal(t, 3, inner.embedCalls)
}

func TestCachedEmbedder_BackendErrorPropagates(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("connection refused")}
	c, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "text")
	assert.Error(t, err)

	_, err = c.EmbedBatch(context.Background(), []string{"text"})
	assert.Error(t, err)
}

func TestCachedEmbedder_DelegatesMetadata(t *testing.T) {
	c, err := NewCachedEmbedder(&countingEmbedder{}, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dimensions())
	assert.Equal(t, "counting-model", c.ModelName())
	assert.True(t, c.Available(context.Background()))
}
