// Package chunk splits normalized document text into overlapping,
// token-bounded, section-aware chunks. Chunks are the retrieval unit:
// both the keyword scorer and the vector index operate on them.
package chunk

import "time"

// Chunk size defaults in tokens.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// Chunk is a bounded span of document text. Immutable once written;
// re-ingesting a document replaces its chunks wholesale.
type Chunk struct {
	ID         string            // SHA256(document_id + chunk_index)[:16]
	DocumentID string            // Parent document ID
	Content    string            // Chunk text
	ChunkIndex int               // Sequential per document, starting at 0
	TokenCount int               // Subword token count of Content
	Section    string            // Section name, empty when unknown
	PageNumber int               // 0 when unknown
	StartChar  int               // Offset in the normalized document text
	EndChar    int               // Exclusive end offset
	Embedding  []float32         // Set during ingestion, nil before
	Metadata   map[string]string // Free-form metadata
	CreatedAt  time.Time
}

// Section is a contiguous region of a document with a heading.
type Section struct {
	Name     string
	Content  string
	StartPos int
	EndPos   int
	Page     int // First page of the section, 0 when unknown
}
