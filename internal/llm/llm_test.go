package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaProvider_RejectsTemperatureOutOfRange(t *testing.T) {
	for _, temp := range []float64{-0.1, 1.5} {
		_, err := NewOllamaProvider(Config{Temperature: temp})
		require.Error(t, err, "temperature %g", temp)
		assert.Contains(t, err.Error(), "temperature")
	}
}

func TestNewOllamaProvider_AppliesDefaults(t *testing.T) {
	p, err := NewOllamaProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.ModelName())
	assert.Equal(t, DefaultHost, p.config.Host)
	assert.Equal(t, DefaultMaxTokens, p.config.MaxTokens)
}

func TestNewOllamaProvider_KeepsExplicitSettings(t *testing.T) {
	p, err := NewOllamaProvider(Config{
		Host:        "http://ollama.internal:11434",
		Model:       "llama3.1:70b",
		MaxTokens:   512,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:70b", p.ModelName())
	assert.Equal(t, 0.7, p.config.Temperature)
}
