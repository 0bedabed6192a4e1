package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/scholaris-ai/scholaris/internal/store"
)

// BM25 parameters
const (
	DefaultBM25K1 = 1.2  // term frequency saturation
	DefaultBM25B  = 0.75 // length normalization
)

// KeywordRetriever scores chunks with BM25 computed over the filtered
// candidate set. Statistics (document frequency, average length) are
// derived from the candidates, not the whole corpus, so scores adapt
// to the scope the caller selected.
type KeywordRetriever struct {
	meta   store.MetadataStore
	k1     float64
	b      float64
	logger *slog.Logger
}

var _ Retriever = (*KeywordRetriever)(nil)

// NewKeywordRetriever creates a BM25 retriever over the metadata store.
func NewKeywordRetriever(meta store.MetadataStore, k1, b float64, logger *slog.Logger) *KeywordRetriever {
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b < 0 || b > 1 {
		b = DefaultBM25B
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordRetriever{meta: meta, k1: k1, b: b, logger: logger}
}

// Retrieve returns the topK chunks by BM25 score. Chunks scoring zero
// are excluded. Scores are normalized so the best hit is 1.0.
func (r *KeywordRetriever) Retrieve(ctx context.Context, query string, topK int, filters Filters) ([]Result, error) {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	chunks, err := r.meta.ListChunks(ctx, store.ChunkFilters{
		DocumentID:  filters.DocumentID,
		DocumentIDs: filters.DocumentIDs,
		Section:     filters.Section,
	})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	docTitles, err := r.documentTitles(ctx)
	if err != nil {
		return nil, err
	}

	// Candidate-set statistics.
	tokenized := make([][]string, len(chunks))
	totalLen := 0
	for i, c := range chunks {
		tokenized[i] = Tokenize(c.Content)
		totalLen += c.TokenCount
	}
	avgDocLen := float64(totalLen) / float64(len(chunks))
	if avgDocLen == 0 {
		avgDocLen = 1
	}

	docFreq := make(map[string]int, len(queryTerms))
	for i := range chunks {
		seen := make(map[string]bool)
		for _, t := range tokenized[i] {
			seen[t] = true
		}
		for _, term := range queryTerms {
			if seen[term] {
				docFreq[term]++
			}
		}
	}

	n := float64(len(chunks))
	idf := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		df := float64(docFreq[term])
		idf[term] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}

	var results []Result
	for i, c := range chunks {
		termFreq := make(map[string]int)
		for _, t := range tokenized[i] {
			termFreq[t]++
		}
		docLen := float64(c.TokenCount)

		score := 0.0
		for _, term := range queryTerms {
			tf := float64(termFreq[term])
			if tf == 0 {
				continue
			}
			tfComponent := (tf * (r.k1 + 1)) / (tf + r.k1*(1-r.b+r.b*docLen/avgDocLen))
			score += idf[term] * tfComponent
		}
		if score <= 0 {
			continue
		}

		results = append(results, Result{
			ChunkID:       c.ID,
			DocumentID:    c.DocumentID,
			DocumentTitle: docTitles[c.DocumentID],
			Content:       c.Content,
			Section:       c.Section,
			PageNumber:    c.PageNumber,
			Score:         score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	if len(results) > 0 {
		maxScore := results[0].Score
		if maxScore > 0 {
			for i := range results {
				results[i].Score /= maxScore
			}
		}
	}

	r.logger.Debug("keyword retrieval completed",
		"terms", len(queryTerms),
		"candidates", len(chunks),
		"results", len(results))

	return results, nil
}

func (r *KeywordRetriever) documentTitles(ctx context.Context) (map[string]string, error) {
	docs, err := r.meta.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}
	return titles, nil
}

// Tokenize lowercases text, splits on non-alphanumeric runs, and
// drops short tokens and stopwords.
func Tokenize(text string) []string {
	var tokens []string
	var sb strings.Builder
	runes := 0
	flush := func() {
		if runes > 2 {
			tok := sb.String()
			if !stopwords[tok] {
				tokens = append(tokens, tok)
			}
		}
		sb.Reset()
		runes = 0
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
			runes++
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true,
	"shall": true, "can": true, "to": true, "of": true, "in": true,
	"for": true, "on": true, "with": true, "at": true, "by": true,
	"from": true, "as": true, "into": true, "through": true,
	"during": true, "before": true, "after": true, "above": true,
	"below": true, "between": true, "under": true, "again": true,
	"further": true, "then": true, "once": true, "here": true,
	"there": true, "when": true, "where": true, "why": true,
	"how": true, "all": true, "each": true, "few": true, "more": true,
	"most": true, "other": true, "some": true, "such": true,
	"no": true, "nor": true, "not": true, "only": true, "own": true,
	"same": true, "so": true, "than": true, "too": true, "very": true,
	"just": true, "and": true, "but": true, "if": true, "or": true,
	"because": true, "until": true, "while": true, "this": true,
	"that": true, "these": true, "those": true,
}
