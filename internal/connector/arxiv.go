package connector

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

const arxivAPIURL = "http://export.arxiv.org/api/query"

var doiPattern = regexp.MustCompile(`10\.\d{4,}/\S+`)

// ArxivConnector searches arXiv preprints through the Atom query API.
type ArxivConnector struct {
	client  *http.Client
	baseURL string
}

var _ Connector = (*ArxivConnector)(nil)

// NewArxivConnector creates an arXiv connector.
func NewArxivConnector(timeout time.Duration) *ArxivConnector {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &ArxivConnector{
		client:  &http.Client{Timeout: timeout},
		baseURL: arxivAPIURL,
	}
}

// SourceName returns "arxiv".
func (c *ArxivConnector) SourceName() string { return SourceArxiv }

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string       `xml:"id"`
	Title      string       `xml:"title"`
	Summary    string       `xml:"summary"`
	Published  string       `xml:"published"`
	Authors    []atomAuthor `xml:"author"`
	Links      []atomLink   `xml:"link"`
	Primary    atomCategory `xml:"primary_category"`
	JournalRef string       `xml:"journal_ref"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// Search queries arXiv sorted by relevance.
func (c *ArxivConnector) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, scherrors.ConnectorError(SourceArxiv, "search failed", err)
	}
	return c.parseFeed(body)
}

// GetByID fetches one paper by arXiv id (e.g. "2301.12345").
func (c *ArxivConnector) GetByID(ctx context.Context, paperID string) (*Record, error) {
	body, err := c.get(ctx, url.Values{"id_list": {paperID}})
	if err != nil {
		return nil, scherrors.ConnectorError(SourceArxiv, "fetch failed", err)
	}
	records, err := c.parseFeed(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *ArxivConnector) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *ArxivConnector) parseFeed(body []byte) ([]Record, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, scherrors.New(scherrors.ErrCodeMalformedPayload,
			"parse arxiv feed", err)
	}

	records := make([]Record, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		arxivID := entry.ID
		if i := strings.Index(arxivID, "/abs/"); i >= 0 {
			arxivID = arxivID[i+len("/abs/"):]
		}

		var authors []string
		for _, a := range entry.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		year := 0
		if len(entry.Published) >= 4 {
			year, _ = strconv.Atoi(entry.Published[:4])
		}

		pdfURL := ""
		for _, link := range entry.Links {
			if link.Title == "pdf" {
				pdfURL = link.Href
				break
			}
		}

		doi := ""
		if entry.JournalRef != "" {
			doi = doiPattern.FindString(entry.JournalRef)
		}

		metadata := map[string]string{}
		if entry.Primary.Term != "" {
			metadata["category"] = entry.Primary.Term
		}
		if pdfURL != "" {
			metadata["pdf_url"] = pdfURL
		}

		records = append(records, Record{
			ID:       arxivID,
			Title:    collapseWhitespace(entry.Title),
			Abstract: collapseWhitespace(entry.Summary),
			Authors:  authors,
			Year:     year,
			Journal:  "arXiv",
			DOI:      doi,
			URL:      entry.ID,
			Source:   SourceArxiv,
			Score:    1.0,
			Metadata: metadata,
		})
	}
	return records, nil
}

// Close releases idle connections.
func (c *ArxivConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
