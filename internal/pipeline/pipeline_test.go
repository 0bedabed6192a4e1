package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris-ai/scholaris/internal/llm"
	"github.com/scholaris-ai/scholaris/internal/search"
	"github.com/scholaris-ai/scholaris/internal/synthesis"
)

type stubRetriever struct {
	results     []search.Result
	err         error
	gotTopK     int
	sawDeadline bool
}

func (s *stubRetriever) Retrieve(ctx context.Context, _ string, topK int, _ search.Filters) ([]search.Result, error) {
	s.gotTopK = topK
	_, s.sawDeadline = ctx.Deadline()
	return s.results, s.err
}

type stubReranker struct {
	gotTopK int
}

func (s *stubReranker) Rerank(_ context.Context, _ string, results []search.Result, topK int) []search.Result {
	s.gotTopK = topK
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

type stubProvider struct {
	answer string
	err    error
}

func (s *stubProvider) Complete(context.Context, string, string) (string, llm.Usage, error) {
	return s.answer, llm.Usage{CompletionTokens: 7}, s.err
}

func (s *stubProvider) ModelName() string { return "test-model" }

func retrievedResults() []search.Result {
	return []search.Result{
		{ChunkID: "c1", DocumentTitle: "Paper A", Content: "alpha", Score: 0.9},
		{ChunkID: "c2", DocumentTitle: "Paper B", Content: "beta", Score: 0.8},
		{ChunkID: "c3", DocumentTitle: "Paper C", Content: "gamma", Score: 0.7},
	}
}

func newTestPipeline(retriever search.Retriever, reranker search.Reranker, provider llm.Provider, cfg Config) *Pipeline {
	return New(retriever, reranker, synthesis.NewSynthesizer(provider, nil), nil, cfg, nil)
}

func TestQuery_RunsAllStages(t *testing.T) {
	retriever := &stubRetriever{results: retrievedResults()}
	reranker := &stubReranker{}
	p := newTestPipeline(retriever, reranker, &stubProvider{answer: "Answer [1]."},
		Config{RetrievalTopK: 10, RerankTopK: 2})

	result, err := p.Query(context.Background(), "what is alpha?", search.Filters{})
	require.NoError(t, err)

	assert.Equal(t, 10, retriever.gotTopK)
	assert.Equal(t, 2, reranker.gotTopK)
	assert.Len(t, result.Retrieved, 3)
	assert.Len(t, result.Reranked, 2)
	assert.Equal(t, "Answer [1].", result.Answer)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "Paper A", result.Citations[0].Title)
	assert.Equal(t, 7, result.TokensUsed)
	assert.Equal(t, "test-model", result.Model)
	assert.Positive(t, result.Latency)
}

func TestQuery_EmptyQuestionRejected(t *testing.T) {
	p := newTestPipeline(&stubRetriever{}, &stubReranker{}, &stubProvider{}, Config{})

	_, err := p.Query(context.Background(), "   ", search.Filters{})
	assert.Error(t, err)
}

func TestQuery_DeadlineSetAtEntry(t *testing.T) {
	retriever := &stubRetriever{results: retrievedResults()}
	p := newTestPipeline(retriever, &stubReranker{}, &stubProvider{answer: "ok"},
		Config{QueryTimeout: time.Minute})

	_, err := p.Query(context.Background(), "question", search.Filters{})
	require.NoError(t, err)
	assert.True(t, retriever.sawDeadline)
}

func TestQuery_RetrievalFailureStopsPipeline(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("index corrupt")}
	p := newTestPipeline(retriever, &stubReranker{}, &stubProvider{answer: "unused"}, Config{})

	_, err := p.Query(context.Background(), "question", search.Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index corrupt")
}

func TestQuery_NoResultsYieldsRefusal(t *testing.T) {
	p := newTestPipeline(&stubRetriever{}, &stubReranker{}, &stubProvider{answer: "unused"}, Config{})

	result, err := p.Query(context.Background(), "question", search.Filters{})
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "don't have enough information")
	assert.Empty(t, result.Citations)
	assert.Zero(t, result.Confidence)
}

func TestQuery_SynthesisFailurePropagates(t *testing.T) {
	p := newTestPipeline(&stubRetriever{results: retrievedResults()}, &stubReranker{},
		&stubProvider{err: errors.New("model offline")}, Config{})

	_, err := p.Query(context.Background(), "question", search.Filters{})
	assert.Error(t, err)
}

func TestNew_DefaultsApplied(t *testing.T) {
	p := New(&stubRetriever{}, &stubReranker{}, nil, nil, Config{}, nil)
	assert.Equal(t, DefaultRetrievalTopK, p.config.RetrievalTopK)
	assert.Equal(t, DefaultRerankTopK, p.config.RerankTopK)
	assert.Equal(t, DefaultQueryTimeout, p.config.QueryTimeout)
}
