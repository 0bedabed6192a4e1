package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Reranker reorders fused results by query-document relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result, topK int) []Result
}

// RerankerConfig configures the cross-encoder sidecar client.
type RerankerConfig struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

const (
	DefaultRerankerEndpoint = "http://localhost:9659"
	DefaultRerankerModel    = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultRerankerTimeout  = 30 * time.Second
)

// CrossEncoderReranker scores query-document pairs against an HTTP
// scoring sidecar. The sidecar connection is probed lazily on first
// use; if the probe fails, or any later call fails, the reranker
// falls back to the incoming fused-score ordering. Rerank never
// returns an error.
type CrossEncoderReranker struct {
	config RerankerConfig
	client *http.Client
	logger *slog.Logger

	initOnce  sync.Once
	available bool
}

var _ Reranker = (*CrossEncoderReranker)(nil)

// NewCrossEncoderReranker creates a reranker client. No network
// traffic happens until the first Rerank call.
func NewCrossEncoderReranker(cfg RerankerConfig, logger *slog.Logger) *CrossEncoderReranker {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultRerankerEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRerankerModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRerankerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CrossEncoderReranker{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Rerank scores each result against the query and returns the topK
// by cross-encoder score, min-max normalized to [0,1]. On any
// failure the fused ordering is kept.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, results []Result, topK int) []Result {
	if len(results) == 0 {
		return nil
	}
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}

	r.initOnce.Do(func() {
		r.available = r.probe(ctx)
		if !r.available {
			r.logger.Warn("reranker sidecar unavailable, using fused ordering",
				"endpoint", r.config.Endpoint)
		}
	})
	if !r.available {
		return fallbackOrder(results, topK)
	}

	scores, err := r.score(ctx, query, results)
	if err != nil {
		r.logger.Warn("rerank call failed, using fused ordering", "error", err)
		return fallbackOrder(results, topK)
	}

	type scored struct {
		score  float64
		result Result
	}
	pairs := make([]scored, len(results))
	minScore, maxScore := scores[0], scores[0]
	for i, s := range scores {
		pairs[i] = scored{s, results[i]}
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	scoreRange := maxScore - minScore
	if scoreRange == 0 {
		scoreRange = 1.0
	}

	reranked := make([]Result, 0, topK)
	for _, p := range pairs[:topK] {
		res := p.result
		res.Score = (p.score - minScore) / scoreRange
		if res.Metadata == nil {
			res.Metadata = make(map[string]string)
		}
		res.Metadata["rerank_score"] = fmt.Sprintf("%.6f", p.score)
		reranked = append(reranked, res)
	}
	return reranked
}

func (r *CrossEncoderReranker) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet,
		r.config.Endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (r *CrossEncoderReranker) score(ctx context.Context, query string, results []Result) ([]float64, error) {
	docs := make([]string, len(results))
	for i, res := range results {
		docs[i] = res.Content
	}
	body, err := json.Marshal(rerankRequest{
		Model:     r.config.Model,
		Query:     query,
		Documents: docs,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.config.Endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("reranker returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Scores) != len(results) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(results), len(result.Scores))
	}
	return result.Scores, nil
}

// fallbackOrder sorts by the incoming fused score and truncates.
func fallbackOrder(results []Result, topK int) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// NoopReranker keeps the fused ordering. Used when reranking is
// disabled in config.
type NoopReranker struct{}

var _ Reranker = (*NoopReranker)(nil)

// Rerank returns the top results in their existing score order.
func (NoopReranker) Rerank(_ context.Context, _ string, results []Result, topK int) []Result {
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return fallbackOrder(results, topK)
}
