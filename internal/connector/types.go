// Package connector integrates external literature databases.
package connector

import (
	"context"
	"time"
)

// Record is a literature search result from an external source.
type Record struct {
	ID       string
	Title    string
	Abstract string
	Authors  []string
	Year     int
	Journal  string
	DOI      string
	URL      string
	Source   string
	Score    float64
	// Metadata holds source-specific string values. List-valued
	// entries are comma-joined; after deduplication, "sources" names
	// every source that contributed to a merged record.
	Metadata map[string]string
}

// Connector provides search and lookup against one literature source.
type Connector interface {
	// SourceName identifies this source ("pubmed", "arxiv", ...)
	SourceName() string

	// Search returns up to limit records matching the query
	Search(ctx context.Context, query string, limit int) ([]Record, error)

	// GetByID fetches a single record by its source-native identifier.
	// A missing paper returns (nil, nil).
	GetByID(ctx context.Context, paperID string) (*Record, error)

	// Close releases resources
	Close() error
}

// SearchOptions carries optional cross-source filters.
type SearchOptions struct {
	YearFrom int
	YearTo   int
}

const DefaultRequestTimeout = 30 * time.Second

// Known source names.
const (
	SourcePubMed          = "pubmed"
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
)
