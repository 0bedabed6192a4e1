package embed

import (
	"context"
	"time"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size
	Dimensions() int

	// ModelName returns the name of the model in use
	ModelName() string

	// Available reports whether the backend is reachable
	Available(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// OllamaConfig configures the Ollama embedding backend.
type OllamaConfig struct {
	Host       string
	Model      string
	Dimensions int

	// BatchSize caps the number of texts per API call. The Ollama
	// batch endpoint degrades sharply above 100 inputs.
	BatchSize int

	// BatchPause is the delay inserted between consecutive batch
	// calls so a local server is not saturated during ingestion.
	BatchPause time.Duration

	Timeout    time.Duration
	MaxRetries int

	// SkipHealthCheck disables the startup availability probe (tests).
	SkipHealthCheck bool
}

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
	DefaultDimensions  = 768
	DefaultBatchSize   = 100
	MaxBatchSize       = 100
	DefaultBatchPause  = 100 * time.Millisecond
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 3
)

// ollamaEmbedRequest is the /api/embed request payload.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the /api/embed response payload.
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}
