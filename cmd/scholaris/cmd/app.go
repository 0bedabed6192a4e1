package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scholaris-ai/scholaris/internal/chunk"
	"github.com/scholaris-ai/scholaris/internal/config"
	"github.com/scholaris-ai/scholaris/internal/connector"
	"github.com/scholaris-ai/scholaris/internal/embed"
	"github.com/scholaris-ai/scholaris/internal/ingest"
	"github.com/scholaris-ai/scholaris/internal/llm"
	"github.com/scholaris-ai/scholaris/internal/pipeline"
	"github.com/scholaris-ai/scholaris/internal/search"
	"github.com/scholaris-ai/scholaris/internal/store"
	"github.com/scholaris-ai/scholaris/internal/synthesis"
	"github.com/scholaris-ai/scholaris/internal/telemetry"
)

// app bundles the wired components behind the CLI commands.
type app struct {
	cfg      *config.Config
	meta     store.MetadataStore
	index    store.VectorIndex
	embedder embed.Embedder
	metrics  *telemetry.Metrics
}

// newApp opens the stores and connects the embedder.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, err
	}

	meta, err := store.NewSQLiteStore(filepath.Join(cfg.Paths.DataDir, store.MetadataFileName))
	if err != nil {
		return nil, err
	}

	ollama, err := embed.NewOllamaEmbedder(ctx, embed.OllamaConfig{
		Host:       cfg.Embeddings.Host,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		BatchPause: cfg.Embeddings.BatchPause,
	})
	if err != nil {
		_ = meta.Close()
		return nil, err
	}
	embedder, err := embed.NewCachedEmbedder(ollama, cfg.Embeddings.CacheSize)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}

	index, err := store.NewHNSWIndex(store.DefaultVectorIndexConfig(embedder.Dimensions()))
	if err != nil {
		_ = meta.Close()
		return nil, err
	}
	indexPath := filepath.Join(cfg.Paths.DataDir, store.IndexFileName)
	if _, statErr := os.Stat(indexPath); statErr == nil {
		if err := index.Load(indexPath); err != nil {
			_ = meta.Close()
			return nil, err
		}
	}

	return &app{
		cfg:      cfg,
		meta:     meta,
		index:    index,
		embedder: embedder,
		metrics:  telemetry.NewMetrics(),
	}, nil
}

func (a *app) Close() {
	_ = a.embedder.Close()
	_ = a.index.Close()
	_ = a.meta.Close()
}

// pipeline wires the query path from the opened stores.
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	logger := slog.Default()

	keyword := search.NewKeywordRetriever(a.meta,
		a.cfg.Retrieval.BM25K1, a.cfg.Retrieval.BM25B, logger)
	semantic := search.NewSemanticRetriever(a.embedder, a.index, a.meta, logger)
	fuser := search.NewFuser(a.cfg.Retrieval.RRFConstant,
		a.cfg.Retrieval.SemanticWeight, a.cfg.Retrieval.KeywordWeight)
	hybrid := search.NewHybridRetriever(semantic, keyword, fuser, logger)

	var reranker search.Reranker = search.NoopReranker{}
	if a.cfg.Reranker.Enabled {
		reranker = search.NewCrossEncoderReranker(search.RerankerConfig{
			Endpoint: a.cfg.Reranker.Endpoint,
			Model:    a.cfg.Reranker.Model,
			Timeout:  a.cfg.Reranker.Timeout,
		}, logger)
	}

	provider, err := llm.NewOllamaProvider(llm.Config{
		Host:        a.cfg.LLM.Host,
		Model:       a.cfg.LLM.Model,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		Temperature: a.cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize llm provider: %w", err)
	}

	synthesizer := synthesis.NewSynthesizer(provider, logger)

	return pipeline.New(hybrid, reranker, synthesizer, a.metrics, pipeline.Config{
		RetrievalTopK: a.cfg.Retrieval.TopK,
		RerankTopK:    a.cfg.Retrieval.RerankTopK,
		QueryTimeout:  a.cfg.Retrieval.QueryTimeout,
	}, logger), nil
}

// ingestor wires the ingestion path.
func (a *app) ingestor() *ingest.Ingestor {
	chunker, err := chunk.NewChunker(a.cfg.Chunking.ChunkSize, a.cfg.Chunking.ChunkOverlap)
	if err != nil {
		// Validated at config load; fall back to defaults.
		chunker, _ = chunk.NewChunker(chunk.DefaultChunkSize, chunk.DefaultChunkOverlap)
	}
	return ingest.NewIngestor(a.cfg.Paths.DataDir, a.meta, a.index,
		a.embedder, chunker, a.metrics, slog.Default())
}

// newAggregatorFromConfig wires the literature connectors named in
// config. Literature commands never touch the local stores, so this is
// a free function rather than an app method.
func newAggregatorFromConfig(cfg *config.Config) *connector.Aggregator {
	logger := slog.Default()
	timeout := cfg.Literature.RequestTimeout

	var connectors []connector.Connector
	for _, source := range cfg.Literature.Sources {
		var c connector.Connector
		switch source {
		case connector.SourcePubMed:
			c = connector.NewPubMedConnector(
				cfg.Literature.PubMedEmail, cfg.Literature.PubMedAPIKey, timeout)
		case connector.SourceArxiv:
			c = connector.NewArxivConnector(timeout)
		case connector.SourceSemanticScholar:
			c = connector.NewSemanticScholarConnector(
				cfg.Literature.SemanticScholarAPIKey, timeout)
		default:
			continue
		}
		connectors = append(connectors, connector.NewResilientConnector(c, 2, logger))
	}
	return connector.NewAggregator(connectors, telemetry.NewMetrics(), logger)
}
