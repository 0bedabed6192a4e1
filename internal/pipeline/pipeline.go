// Package pipeline orchestrates the query path: hybrid retrieval,
// cross-encoder reranking, and citation-grounded synthesis.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
	"github.com/scholaris-ai/scholaris/internal/search"
	"github.com/scholaris-ai/scholaris/internal/synthesis"
	"github.com/scholaris-ai/scholaris/internal/telemetry"
)

// Config sets pipeline-wide knobs.
type Config struct {
	RetrievalTopK int
	RerankTopK    int

	// QueryTimeout bounds the whole query path. The deadline is set
	// once at entry and flows through retrieval, reranking, and
	// synthesis unchanged.
	QueryTimeout time.Duration
}

const (
	DefaultRetrievalTopK = 10
	DefaultRerankTopK    = 5
	DefaultQueryTimeout  = 60 * time.Second
)

// Result is the complete output of one query.
type Result struct {
	Answer     string
	Citations  []synthesis.Citation
	Retrieved  []search.Result
	Reranked   []search.Result
	Confidence float64
	TokensUsed int
	Model      string
	Latency    time.Duration
}

// Pipeline wires the retrieval, reranking, and synthesis stages.
type Pipeline struct {
	retriever   search.Retriever
	reranker    search.Reranker
	synthesizer *synthesis.Synthesizer
	metrics     *telemetry.Metrics
	config      Config
	logger      *slog.Logger
}

// New creates a pipeline from its stages.
func New(retriever search.Retriever, reranker search.Reranker, synthesizer *synthesis.Synthesizer, metrics *telemetry.Metrics, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = DefaultRetrievalTopK
	}
	if cfg.RerankTopK <= 0 {
		cfg.RerankTopK = DefaultRerankTopK
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:   retriever,
		reranker:    reranker,
		synthesizer: synthesizer,
		metrics:     metrics,
		config:      cfg,
		logger:      logger,
	}
}

// Query runs the full pipeline for one question.
func (p *Pipeline) Query(ctx context.Context, question string, filters search.Filters) (result *Result, err error) {
	if strings.TrimSpace(question) == "" {
		return nil, scherrors.New(scherrors.ErrCodeQueryEmpty, "question is empty", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	start := time.Now()
	if p.metrics != nil {
		defer func() { p.metrics.FinishQuery(err) }()
	}

	p.logger.Info("query started", "question", truncate(question, 100))

	retrieved, err := p.stageRetrieve(ctx, question, filters)
	if err != nil {
		return nil, err
	}

	reranked := p.stageRerank(ctx, question, retrieved)

	synthResult, err := p.stageSynthesize(ctx, question, reranked)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start)
	p.logger.Info("query completed",
		"latency_ms", latency.Milliseconds(),
		"retrieved", len(retrieved),
		"reranked", len(reranked),
		"citations", len(synthResult.Citations),
		"confidence", synthResult.Confidence)

	return &Result{
		Answer:     synthResult.Answer,
		Citations:  synthResult.Citations,
		Retrieved:  retrieved,
		Reranked:   reranked,
		Confidence: synthResult.Confidence,
		TokensUsed: synthResult.TokensUsed,
		Model:      synthResult.Model,
		Latency:    latency,
	}, nil
}

func (p *Pipeline) stageRetrieve(ctx context.Context, question string, filters search.Filters) ([]search.Result, error) {
	start := time.Now()
	retrieved, err := p.retriever.Retrieve(ctx, question, p.config.RetrievalTopK, filters)
	p.observe("retrieve", start)
	return retrieved, err
}

func (p *Pipeline) stageRerank(ctx context.Context, question string, retrieved []search.Result) []search.Result {
	if len(retrieved) == 0 {
		return nil
	}
	start := time.Now()
	reranked := p.reranker.Rerank(ctx, question, retrieved, p.config.RerankTopK)
	p.observe("rerank", start)
	return reranked
}

func (p *Pipeline) stageSynthesize(ctx context.Context, question string, reranked []search.Result) (*synthesis.Result, error) {
	start := time.Now()
	result, err := p.synthesizer.Synthesize(ctx, question, reranked)
	p.observe("synthesize", start)
	return result, err
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveStage(stage, time.Since(start))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
