// Package config loads and validates the Scholaris configuration.
// The Config is constructed once at startup and passed down explicitly;
// no package reads configuration from globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	scherr "github.com/scholaris-ai/scholaris/internal/errors"
)

// Config represents the complete Scholaris configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	Reranker   RerankerConfig   `yaml:"reranker" json:"reranker"`
	Literature LiteratureConfig `yaml:"literature" json:"literature"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PathsConfig configures on-disk locations for the index and metadata.
type PathsConfig struct {
	// DataDir holds the vector index, metadata database, and locks.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// RetrievalConfig configures hybrid retrieval parameters.
type RetrievalConfig struct {
	// SemanticWeight is the RRF weight for semantic results (0.0-1.0).
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`

	// KeywordWeight is the RRF weight for keyword results (0.0-1.0).
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// RRFConstant is the RRF fusion smoothing parameter (k).
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// BM25K1 is the term frequency saturation parameter (default: 1.2).
	BM25K1 float64 `yaml:"bm25_k1" json:"bm25_k1"`

	// BM25B is the length normalization parameter (default: 0.75).
	BM25B float64 `yaml:"bm25_b" json:"bm25_b"`

	// TopK is the number of candidates retrieved before reranking.
	TopK int `yaml:"top_k" json:"top_k"`

	// RerankTopK is the number of candidates kept after reranking.
	RerankTopK int `yaml:"rerank_top_k" json:"rerank_top_k"`

	// QueryTimeout bounds the whole ask pipeline; the deadline is
	// propagated to every external call.
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout"`
}

// ChunkingConfig configures the document chunker.
type ChunkingConfig struct {
	// ChunkSize is the target chunk size in tokens.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ChunkOverlap is the overlap window between chunks in tokens.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Host is the Ollama-compatible API endpoint.
	Host string `yaml:"host" json:"host"`

	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`

	// Dimensions is the embedding dimension (0 = auto-detect).
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize caps texts per upstream request (hard max 100).
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// BatchPause is the pause between sequential sub-batches.
	BatchPause time.Duration `yaml:"batch_pause" json:"batch_pause"`

	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LLMConfig configures the completion provider used for synthesis.
type LLMConfig struct {
	// Host is the Ollama server URL.
	Host string `yaml:"host" json:"host"`

	// Model is the completion model name.
	Model string `yaml:"model" json:"model"`

	// MaxTokens bounds the answer length.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Temperature controls sampling (lower = more focused).
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// RerankerConfig configures the cross-encoder reranker sidecar.
type RerankerConfig struct {
	// Endpoint is the reranker inference server URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Model is the cross-encoder model alias.
	Model string `yaml:"model" json:"model"`

	// Timeout bounds a single rerank request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Enabled toggles reranking. When the model is unavailable the
	// pipeline falls back to fused-score ordering either way.
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LiteratureConfig configures the external literature connectors.
type LiteratureConfig struct {
	// Sources lists the enabled connectors
	// (pubmed, arxiv, semantic_scholar).
	Sources []string `yaml:"sources" json:"sources"`

	// PubMedEmail is sent to NCBI for higher rate limits.
	PubMedEmail string `yaml:"pubmed_email" json:"pubmed_email"`

	// PubMedAPIKey is the optional NCBI API key.
	PubMedAPIKey string `yaml:"pubmed_api_key" json:"pubmed_api_key"`

	// SemanticScholarAPIKey is the optional S2 API key.
	SemanticScholarAPIKey string `yaml:"semantic_scholar_api_key" json:"semantic_scholar_api_key"`

	// RequestTimeout bounds a single connector call.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Retrieval: RetrievalConfig{
			SemanticWeight: 0.7,
			KeywordWeight:  0.3,
			RRFConstant:    60,
			BM25K1:         1.2,
			BM25B:          0.75,
			TopK:           10,
			RerankTopK:     5,
			QueryTimeout:   60 * time.Second,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    512,
			ChunkOverlap: 50,
		},
		Embeddings: EmbeddingsConfig{
			Host:       "http://localhost:11434",
			Model:      "nomic-embed-text",
			BatchSize:  100,
			BatchPause: 100 * time.Millisecond,
			CacheSize:  1000,
		},
		LLM: LLMConfig{
			Host:        "http://localhost:11434",
			Model:       "llama3.1",
			MaxTokens:   2048,
			Temperature: 0.3,
		},
		Reranker: RerankerConfig{
			Endpoint: "http://localhost:9659",
			Model:    "ms-marco-minilm",
			Timeout:  30 * time.Second,
			Enabled:  true,
		},
		Literature: LiteratureConfig{
			Sources:        []string{"pubmed", "arxiv", "semantic_scholar"},
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "scholaris")
	}
	return filepath.Join(home, ".scholaris")
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist. Environment overrides are applied afterwards and
// the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, scherr.New(scherr.ErrCodeConfigNotFound,
					fmt.Sprintf("cannot read config %s", path), err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, scherr.ConfigError(
				fmt.Sprintf("cannot parse config %s", path), err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies SCHOLARIS_* environment variables.
// Precedence is defaults < file < env.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCHOLARIS_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("SCHOLARIS_EMBEDDINGS_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("SCHOLARIS_LLM_HOST"); v != "" {
		c.LLM.Host = v
	}
	if v := os.Getenv("SCHOLARIS_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("SCHOLARIS_RERANKER_ENDPOINT"); v != "" {
		c.Reranker.Endpoint = v
	}
	if v := os.Getenv("SCHOLARIS_PUBMED_API_KEY"); v != "" {
		c.Literature.PubMedAPIKey = v
	}
	if v := os.Getenv("SCHOLARIS_S2_API_KEY"); v != "" {
		c.Literature.SemanticScholarAPIKey = v
	}
	if v := os.Getenv("SCHOLARIS_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.SemanticWeight = f
		}
	}
	if v := os.Getenv("SCHOLARIS_KEYWORD_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.KeywordWeight = f
		}
	}
	if v := os.Getenv("SCHOLARIS_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retrieval.RRFConstant = n
		}
	}
	if v := os.Getenv("SCHOLARIS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return scherr.ConfigError("chunk_size must be positive", nil)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return scherr.ConfigError("chunk_overlap cannot be negative", nil)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return scherr.ConfigError("chunk_overlap must be smaller than chunk_size", nil)
	}
	if c.Retrieval.SemanticWeight < 0 || c.Retrieval.SemanticWeight > 1 {
		return scherr.ConfigError("semantic_weight must be in [0,1]", nil)
	}
	if c.Retrieval.KeywordWeight < 0 || c.Retrieval.KeywordWeight > 1 {
		return scherr.ConfigError("keyword_weight must be in [0,1]", nil)
	}
	if c.Retrieval.RRFConstant <= 0 {
		return scherr.ConfigError("rrf_constant must be positive", nil)
	}
	if c.Retrieval.BM25K1 <= 0 {
		return scherr.ConfigError("bm25_k1 must be positive", nil)
	}
	if c.Retrieval.BM25B < 0 || c.Retrieval.BM25B > 1 {
		return scherr.ConfigError("bm25_b must be in [0,1]", nil)
	}
	if c.Retrieval.TopK <= 0 {
		return scherr.ConfigError("top_k must be positive", nil)
	}
	if c.Retrieval.RerankTopK <= 0 {
		return scherr.ConfigError("rerank_top_k must be positive", nil)
	}
	if c.Embeddings.BatchSize <= 0 || c.Embeddings.BatchSize > 100 {
		return scherr.ConfigError("embeddings batch_size must be in (0,100]", nil)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return scherr.ConfigError("llm temperature must be in [0,1]", nil)
	}
	if c.LLM.MaxTokens <= 0 {
		return scherr.ConfigError("llm max_tokens must be positive", nil)
	}
	for _, s := range c.Literature.Sources {
		switch s {
		case "pubmed", "arxiv", "semantic_scholar":
		default:
			return scherr.ConfigError("unknown literature source: "+s, nil)
		}
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return scherr.ConfigError("cannot marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return scherr.ConfigError("cannot create config directory", err)
	}
	return os.WriteFile(path, data, 0o644)
}
