package search

import (
	"context"
	"log/slog"

	"github.com/scholaris-ai/scholaris/internal/embed"
	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
	"github.com/scholaris-ai/scholaris/internal/store"
)

// SemanticRetriever embeds the query and searches the vector index.
type SemanticRetriever struct {
	embedder embed.Embedder
	index    store.VectorIndex
	meta     store.MetadataStore
	logger   *slog.Logger
}

var _ Retriever = (*SemanticRetriever)(nil)

// NewSemanticRetriever wires the embedder, vector index, and metadata
// store together.
func NewSemanticRetriever(embedder embed.Embedder, index store.VectorIndex, meta store.MetadataStore, logger *slog.Logger) *SemanticRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticRetriever{embedder: embedder, index: index, meta: meta, logger: logger}
}

// Retrieve embeds the query, searches the index, and hydrates hits
// from the metadata store. Scores are cosine similarities.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, topK int, filters Filters) ([]Result, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, scherrors.RetrievalError("embed query", err)
	}

	hits, err := r.index.Search(ctx, vector, topK, store.ChunkFilters{
		DocumentID:  filters.DocumentID,
		DocumentIDs: filters.DocumentIDs,
		Section:     filters.Section,
	})
	if err != nil {
		return nil, scherrors.RetrievalError("search vector index", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	similarity := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
		similarity[h.ChunkID] = h.Similarity
	}

	chunks, err := r.meta.GetChunks(ctx, ids)
	if err != nil {
		return nil, scherrors.RetrievalError("load chunks", err)
	}
	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = i
	}

	docs, err := r.meta.ListDocuments(ctx)
	if err != nil {
		return nil, scherrors.RetrievalError("load documents", err)
	}
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	// Preserve the index ordering; drop hits whose chunks are gone
	// (index and metadata can briefly disagree during re-ingestion).
	var results []Result
	for _, h := range hits {
		i, ok := byID[h.ChunkID]
		if !ok {
			r.logger.Warn("vector hit missing from metadata store", "chunk_id", h.ChunkID)
			continue
		}
		c := chunks[i]
		results = append(results, Result{
			ChunkID:       c.ID,
			DocumentID:    c.DocumentID,
			DocumentTitle: titles[c.DocumentID],
			Content:       c.Content,
			Section:       c.Section,
			PageNumber:    c.PageNumber,
			Score:         similarity[c.ID],
		})
	}

	return results, nil
}
