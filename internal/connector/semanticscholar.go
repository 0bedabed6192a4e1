package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

// errPaperNotFound marks a 404 from the paper lookup endpoint.
var errPaperNotFound = errors.New("paper not found")

const (
	s2APIURL = "https://api.semanticscholar.org/graph/v1"
	s2Fields = "paperId,title,abstract,authors,year,venue,externalIds,url,citationCount,influentialCitationCount"
)

// SemanticScholarConnector searches the Semantic Scholar Academic
// Graph API. Relevance scores are derived from citation counts.
type SemanticScholarConnector struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ Connector = (*SemanticScholarConnector)(nil)

// NewSemanticScholarConnector creates a connector. The API key is
// optional but raises the rate limit substantially.
func NewSemanticScholarConnector(apiKey string, timeout time.Duration) *SemanticScholarConnector {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &SemanticScholarConnector{
		client:  &http.Client{Timeout: timeout},
		baseURL: s2APIURL,
		apiKey:  apiKey,
	}
}

// SourceName returns "semantic_scholar".
func (c *SemanticScholarConnector) SourceName() string { return SourceSemanticScholar }

type s2Paper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Year                     int               `json:"year"`
	Venue                    string            `json:"venue"`
	ExternalIDs              map[string]any    `json:"externalIds"`
	URL                      string            `json:"url"`
	CitationCount            int               `json:"citationCount"`
	InfluentialCitationCount int               `json:"influentialCitationCount"`
}

type s2SearchResponse struct {
	Data []s2Paper `json:"data"`
}

// Search queries the paper search endpoint.
func (c *SemanticScholarConnector) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {s2Fields},
	}
	body, err := c.get(ctx, c.baseURL+"/paper/search", params)
	if err != nil {
		return nil, err
	}

	var result s2SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, scherrors.New(scherrors.ErrCodeMalformedPayload,
			"parse search response", err)
	}

	records := make([]Record, 0, len(result.Data))
	for _, paper := range result.Data {
		records = append(records, c.toRecord(paper))
	}
	return records, nil
}

// GetByID fetches one paper by Semantic Scholar id or DOI.
func (c *SemanticScholarConnector) GetByID(ctx context.Context, paperID string) (*Record, error) {
	params := url.Values{"fields": {s2Fields}}
	body, err := c.get(ctx, c.baseURL+"/paper/"+url.PathEscape(paperID), params)
	if err != nil {
		if errors.Is(err, errPaperNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var paper s2Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, scherrors.New(scherrors.ErrCodeMalformedPayload,
			"parse paper response", err)
	}
	record := c.toRecord(paper)
	return &record, nil
}

func (c *SemanticScholarConnector) toRecord(paper s2Paper) Record {
	var authors []string
	for _, a := range paper.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	doi := ""
	if v, ok := paper.ExternalIDs["DOI"].(string); ok {
		doi = v
	}

	// Log-scale citation count as a relevance proxy, boosted when the
	// paper has influential citations.
	score := 0.5
	if paper.CitationCount > 0 {
		score = math.Min(1.0, math.Log10(float64(paper.CitationCount)+1)/5)
	}
	if paper.InfluentialCitationCount > 0 {
		score = math.Min(1.0, score+0.2)
	}

	metadata := map[string]string{
		"citation_count":             strconv.Itoa(paper.CitationCount),
		"influential_citation_count": strconv.Itoa(paper.InfluentialCitationCount),
	}
	if v, ok := paper.ExternalIDs["ArXiv"].(string); ok {
		metadata["arxiv_id"] = v
	}
	if v, ok := paper.ExternalIDs["PubMed"].(string); ok {
		metadata["pubmed_id"] = v
	}

	title := paper.Title
	if title == "" {
		title = "No title"
	}

	return Record{
		ID:       paper.PaperID,
		Title:    title,
		Abstract: paper.Abstract,
		Authors:  authors,
		Year:     paper.Year,
		Journal:  paper.Venue,
		DOI:      doi,
		URL:      paper.URL,
		Source:   SourceSemanticScholar,
		Score:    score,
		Metadata: metadata,
	}
}

func (c *SemanticScholarConnector) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, scherrors.ConnectorError(SourceSemanticScholar, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusTooManyRequests:
		return nil, scherrors.RateLimitError(SourceSemanticScholar)
	case http.StatusNotFound:
		return nil, errPaperNotFound
	default:
		return nil, scherrors.ConnectorError(SourceSemanticScholar,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

// Close releases idle connections.
func (c *SemanticScholarConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
