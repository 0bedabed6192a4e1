// Package ingest turns raw documents into chunks, embeddings, and
// index entries.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/scholaris-ai/scholaris/internal/chunk"
	"github.com/scholaris-ai/scholaris/internal/embed"
	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
	"github.com/scholaris-ai/scholaris/internal/store"
	"github.com/scholaris-ai/scholaris/internal/telemetry"
)

// Ingestor writes documents into the metadata store and vector index.
// Only one process may ingest at a time; a file lock under the data
// directory enforces this.
type Ingestor struct {
	meta      store.MetadataStore
	index     store.VectorIndex
	indexPath string
	embedder  embed.Embedder
	chunker   *chunk.Chunker
	metrics   *telemetry.Metrics
	lock      *writerLock
	logger    *slog.Logger
}

// Stats summarizes one ingestion.
type Stats struct {
	DocumentID string
	Chunks     int
	Skipped    bool
}

// NewIngestor creates an ingestor rooted at dataDir.
func NewIngestor(dataDir string, meta store.MetadataStore, index store.VectorIndex, embedder embed.Embedder, chunker *chunk.Chunker, metrics *telemetry.Metrics, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		meta:      meta,
		index:     index,
		indexPath: filepath.Join(dataDir, store.IndexFileName),
		embedder:  embedder,
		chunker:   chunker,
		metrics:   metrics,
		lock:      newWriterLock(dataDir),
		logger:    logger,
	}
}

// IngestFile reads a file and ingests it with the filename (minus
// extension) as the title.
func (g *Ingestor) IngestFile(ctx context.Context, path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return g.Ingest(ctx, title, path, string(data))
}

// Ingest chunks, embeds, and indexes one document. A document with
// the same title is treated as the same document: unchanged content
// is skipped, changed content replaces the previous chunks under the
// existing document id.
func (g *Ingestor) Ingest(ctx context.Context, title, source, text string) (*Stats, error) {
	if strings.TrimSpace(text) == "" {
		return nil, scherrors.ValidationError("document is empty", nil)
	}

	acquired, err := g.lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, scherrors.New(scherrors.ErrCodeMetadataFailure,
			"another ingestion is in progress", nil)
	}
	defer func() { _ = g.lock.Unlock() }()

	text = normalize(text)
	hash := contentHash(text)

	docID, existing, err := g.resolveDocument(ctx, title)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ContentHash == hash {
		g.logger.Info("document unchanged, skipping", "title", title)
		return &Stats{DocumentID: docID, Chunks: existing.ChunkCount, Skipped: true}, nil
	}

	sections := chunk.ExtractSections(text)
	chunks, err := g.chunker.Chunk(docID, text, sections)
	if err != nil {
		return nil, scherrors.New(scherrors.ErrCodeChunkingFailed, "chunk document", err)
	}
	if len(chunks) == 0 {
		return nil, scherrors.ValidationError("document produced no chunks", nil)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	metas := make([]store.VectorMeta, len(chunks))
	for i, c := range chunks {
		c.Embedding = embeddings[i]
		ids[i] = c.ID
		metas[i] = store.VectorMeta{DocumentID: c.DocumentID, Section: c.Section}
	}

	// Replace before insert so a re-ingested document never holds
	// stale chunks alongside new ones.
	if existing != nil {
		if err := g.index.DeleteByDocument(ctx, docID); err != nil {
			return nil, err
		}
		if err := g.meta.DeleteChunksByDocument(ctx, docID); err != nil {
			return nil, err
		}
	}

	if err := g.index.Insert(ctx, ids, embeddings, metas); err != nil {
		return nil, err
	}
	if err := g.meta.SaveChunks(ctx, chunks); err != nil {
		return nil, err
	}

	doc := &store.Document{
		ID:          docID,
		Title:       title,
		Source:      source,
		ContentHash: hash,
		ChunkCount:  len(chunks),
	}
	if existing != nil {
		doc.CreatedAt = existing.CreatedAt
	}
	if err := g.meta.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := g.index.Save(g.indexPath); err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.RecordIngest(len(chunks))
	}
	g.logger.Info("document ingested",
		"title", title,
		"document_id", docID,
		"chunks", len(chunks),
		"replaced", existing != nil)

	return &Stats{DocumentID: docID, Chunks: len(chunks)}, nil
}

// Delete removes a document and its chunks from both stores.
func (g *Ingestor) Delete(ctx context.Context, documentID string) error {
	if err := g.index.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := g.meta.DeleteChunksByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := g.meta.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	return g.index.Save(g.indexPath)
}

// resolveDocument finds an existing document by exact title, or
// allocates a fresh id.
func (g *Ingestor) resolveDocument(ctx context.Context, title string) (string, *store.Document, error) {
	docs, err := g.meta.ListDocuments(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, d := range docs {
		if d.Title == title {
			return d.ID, d, nil
		}
	}
	return uuid.NewString(), nil, nil
}

// normalize unifies line endings and trims trailing whitespace.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, "\n\t ")
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
