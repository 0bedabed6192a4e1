// Package llm wraps the completion backend behind a small provider
// interface so synthesis does not depend on a specific vendor.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Provider generates text completions.
type Provider interface {
	// Complete generates a completion for the system and user prompts
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)

	// ModelName returns the model in use
	ModelName() string
}

// Config configures the Ollama completion backend.
type Config struct {
	Host        string
	Model       string
	MaxTokens   int
	Temperature float64
}

const (
	DefaultHost        = "http://localhost:11434"
	DefaultModel       = "llama3.1"
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.3
)

// OllamaProvider implements Provider over langchaingo's Ollama client.
type OllamaProvider struct {
	config Config
	model  llms.Model
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider creates a completion client for a local Ollama server.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return nil, scherrors.ConfigError(
			fmt.Sprintf("temperature must be in [0,1], got %g", cfg.Temperature), nil)
	}

	model, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.Host),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize ollama client: %w", err)
	}

	return &OllamaProvider{config: cfg, model: model}, nil
}

// Complete sends the prompts and returns the first choice's text.
func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := p.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(p.config.MaxTokens),
		llms.WithTemperature(p.config.Temperature),
	)
	if err != nil {
		return "", Usage{}, scherrors.SynthesisError("llm completion", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", Usage{}, scherrors.SynthesisError("llm returned no choices", nil)
	}

	choice := resp.Choices[0]
	usage := Usage{}
	if choice.GenerationInfo != nil {
		if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
			usage.PromptTokens = v
		}
		if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
			usage.CompletionTokens = v
		}
	}

	return choice.Content, usage, nil
}

// ModelName returns the configured model.
func (p *OllamaProvider) ModelName() string {
	return p.config.Model
}
