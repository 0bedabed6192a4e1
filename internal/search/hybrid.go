package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

// HybridRetriever runs the semantic and keyword retrievers
// concurrently and fuses their rankings. Either retriever failing
// fails the whole retrieval: silently dropping one arm would skew
// the fused ranking without the caller knowing.
type HybridRetriever struct {
	semantic Retriever
	keyword  Retriever
	fuser    *Fuser
	logger   *slog.Logger
}

var _ Retriever = (*HybridRetriever)(nil)

// NewHybridRetriever combines the two retrieval arms with a fuser.
func NewHybridRetriever(semantic, keyword Retriever, fuser *Fuser, logger *slog.Logger) *HybridRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridRetriever{semantic: semantic, keyword: keyword, fuser: fuser, logger: logger}
}

// Retrieve fetches 3x topK candidates from each arm, fuses them, and
// returns the top topK fused results.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int, filters Filters) ([]Result, error) {
	candidateK := topK * 3

	var semanticResults, keywordResults []Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semanticResults, err = r.semantic.Retrieve(gctx, query, candidateK, filters)
		return err
	})
	g.Go(func() error {
		var err error
		keywordResults, err = r.keyword.Retrieve(gctx, query, candidateK, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, scherrors.RetrievalError("hybrid retrieval", err)
	}

	fused := r.fuser.Fuse(semanticResults, keywordResults)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	r.logger.Debug("hybrid retrieval completed",
		"semantic", len(semanticResults),
		"keyword", len(keywordResults),
		"fused", len(fused))

	return fused, nil
}
