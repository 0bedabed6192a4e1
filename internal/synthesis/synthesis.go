// Package synthesis generates citation-grounded answers from
// retrieved context.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/scholaris-ai/scholaris/internal/llm"
	"github.com/scholaris-ai/scholaris/internal/search"
)

// Citation records one numbered source referenced in an answer.
type Citation struct {
	ID         int
	DocumentID string
	ChunkID    string
	Title      string
	Excerpt    string
	Page       int
	Confidence float64
}

// Result is a synthesized answer with its supporting citations.
type Result struct {
	Answer      string
	Citations   []Citation
	SourcesUsed int
	Confidence  float64
	TokensUsed  int
	Model       string
}

const noContextAnswer = "I don't have enough information to answer this question. " +
	"Please try rephrasing or provide more context."

const systemPrompt = `You are a scientific research assistant. Answer the user's question based ONLY on the provided context. Follow these rules:

1. Use inline citations [1], [2], etc. to reference your sources
2. If the context doesn't contain enough information, say so clearly
3. Be precise and scientific - avoid speculation
4. Synthesize information from multiple sources when relevant
5. Use direct quotes sparingly, preferring paraphrased summaries`

const excerptLen = 200

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Synthesizer turns retrieved chunks into an answer with citations.
type Synthesizer struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer over the given LLM provider.
func NewSynthesizer(provider llm.Provider, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{provider: provider, logger: logger}
}

// Synthesize generates an answer grounded in the context chunks.
// Empty context short-circuits with a fixed refusal and no LLM call.
// Citation markers in the answer that do not match a context entry
// are dropped silently.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, contextChunks []search.Result) (*Result, error) {
	if len(contextChunks) == 0 {
		return &Result{
			Answer:     noContextAnswer,
			Confidence: 0,
			Model:      s.provider.ModelName(),
		}, nil
	}

	evidence := formatContext(contextChunks)
	userPrompt := fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s\n\nANSWER (with citations):", evidence, query)

	answer, usage, err := s.provider.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	citations := extractCitations(answer, contextChunks)

	// Confidence reflects how much of the offered context the answer
	// actually drew on.
	confidence := min(1.0, float64(len(citations))/float64(max(1, len(contextChunks)/2)))

	s.logger.Info("synthesis completed",
		"answer_length", len(answer),
		"citations", len(citations),
		"confidence", confidence)

	return &Result{
		Answer:      answer,
		Citations:   citations,
		SourcesUsed: len(citations),
		Confidence:  confidence,
		TokensUsed:  usage.CompletionTokens,
		Model:       s.provider.ModelName(),
	}, nil
}

// formatContext numbers each chunk as a citable evidence entry.
func formatContext(chunks []search.Result) string {
	var sb strings.Builder
	for i, c := range chunks {
		title := c.DocumentTitle
		if title == "" {
			title = "Unknown Document"
		}
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, title))
		if c.Section != "" {
			sb.WriteString(" - " + c.Section)
		}
		if c.PageNumber > 0 {
			sb.WriteString(fmt.Sprintf(" (p. %d)", c.PageNumber))
		}
		sb.WriteString(":\n")
		sb.WriteString(c.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// extractCitations finds the distinct citation ids used in the answer
// and resolves them against the numbered context.
func extractCitations(answer string, chunks []search.Result) []Citation {
	used := make(map[int]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}

	ids := make([]int, 0, len(used))
	for n := range used {
		if n >= 1 && n <= len(chunks) {
			ids = append(ids, n)
		}
	}
	sort.Ints(ids)

	citations := make([]Citation, 0, len(ids))
	for _, n := range ids {
		c := chunks[n-1]
		title := c.DocumentTitle
		if title == "" {
			title = "Unknown"
		}
		citations = append(citations, Citation{
			ID:         n,
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			Title:      title,
			Excerpt:    excerpt(c.Content),
			Page:       c.PageNumber,
			Confidence: c.Score,
		})
	}
	return citations
}

func excerpt(content string) string {
	if len(content) <= excerptLen {
		return content
	}
	// Back off to a rune boundary so the cut never splits a
	// multi-byte character.
	cut := excerptLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
