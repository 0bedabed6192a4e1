// Package store provides the persistence layer: an HNSW vector index
// for chunk embeddings and a SQLite metadata store for documents and
// chunks. Both are consumed by retrieval read-only; ingestion is the
// only writer.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/scholaris-ai/scholaris/internal/chunk"
)

// Canonical file names under the data directory.
const (
	IndexFileName    = "vectors.hnsw"
	MetadataFileName = "scholaris.db"
)

// Document represents an ingested document.
type Document struct {
	ID          string
	Title       string
	Source      string // File path or URL the text came from
	ContentHash string // SHA256 of the normalized text
	ChunkCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChunkFilters restricts retrieval to a subset of the corpus.
// Zero value means no restriction.
type ChunkFilters struct {
	// DocumentID restricts to a single document.
	DocumentID string
	// DocumentIDs restricts to a set of documents.
	DocumentIDs []string
	// Section restricts to chunks from a named section.
	Section string
}

// IsZero reports whether no filter is set.
func (f ChunkFilters) IsZero() bool {
	return f.DocumentID == "" && len(f.DocumentIDs) == 0 && f.Section == ""
}

// Match reports whether a chunk with the given document and section
// passes the filters.
func (f ChunkFilters) Match(documentID, section string) bool {
	if f.DocumentID != "" && documentID != f.DocumentID {
		return false
	}
	if len(f.DocumentIDs) > 0 {
		found := false
		for _, id := range f.DocumentIDs {
			if id == documentID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Section != "" && section != f.Section {
		return false
	}
	return true
}

// VectorMeta is the per-vector metadata the index needs for filtering.
type VectorMeta struct {
	DocumentID string
	Section    string
}

// VectorHit is a single vector search result.
type VectorHit struct {
	ChunkID    string
	Similarity float64 // 1 - cosine distance; 1.0 perfect, 0.0 orthogonal
}

// VectorIndex provides nearest-neighbor search over chunk embeddings.
// Search results come back pre-sorted descending by similarity.
type VectorIndex interface {
	// Insert adds vectors with their chunk ids. Existing ids are replaced.
	Insert(ctx context.Context, ids []string, vectors [][]float32, metas []VectorMeta) error

	// Search finds the topK nearest chunks, restricted by filters.
	Search(ctx context.Context, query []float32, topK int, filters ChunkFilters) ([]*VectorHit, error)

	// Delete removes vectors by chunk id.
	Delete(ctx context.Context, ids []string) error

	// DeleteByDocument removes every vector belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// MetadataStore persists documents and chunk metadata in SQLite.
type MetadataStore interface {
	// Document operations
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Chunk operations
	SaveChunks(ctx context.Context, chunks []*chunk.Chunk) error
	GetChunk(ctx context.Context, id string) (*chunk.Chunk, error)
	GetChunks(ctx context.Context, ids []string) ([]*chunk.Chunk, error) // Batch retrieval
	ListChunks(ctx context.Context, filters ChunkFilters) ([]*chunk.Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) error

	// Lifecycle
	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (re-ingest the corpus with the current embedder)", e.Expected, e.Got)
}
