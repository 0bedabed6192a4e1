package search

import "context"

// Result is a single retrieval hit, shared across the keyword,
// semantic, fused, and reranked stages.
type Result struct {
	ChunkID       string
	DocumentID    string
	DocumentTitle string
	Content       string
	Section       string
	PageNumber    int
	Score         float64
	Metadata      map[string]string
}

// Filters narrows retrieval to a subset of the corpus.
type Filters struct {
	DocumentID  string
	DocumentIDs []string
	Section     string
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.DocumentID == "" && len(f.DocumentIDs) == 0 && f.Section == ""
}

// Retriever returns scored results for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, filters Filters) ([]Result, error)
}
