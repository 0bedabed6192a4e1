package connector

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
)

const (
	pubmedESearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedEFetchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	pubmedTool       = "scholaris"
)

// PubMedConnector searches PubMed through the NCBI E-utilities API.
// Search is two requests: esearch for PMIDs, then efetch for details.
type PubMedConnector struct {
	client *http.Client
	email  string
	apiKey string
}

var _ Connector = (*PubMedConnector)(nil)

// NewPubMedConnector creates a PubMed connector. Email is recommended
// by NCBI; an API key raises the rate limit.
func NewPubMedConnector(email, apiKey string, timeout time.Duration) *PubMedConnector {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &PubMedConnector{
		client: &http.Client{Timeout: timeout},
		email:  email,
		apiKey: apiKey,
	}
}

// SourceName returns "pubmed".
func (c *PubMedConnector) SourceName() string { return SourcePubMed }

// Search returns PubMed records matching the query. PubMed does not
// expose relevance scores, so every record scores 1.0.
func (c *PubMedConnector) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	pmids, err := c.searchPMIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return c.fetchDetails(ctx, pmids)
}

// GetByID fetches one record by PMID.
func (c *PubMedConnector) GetByID(ctx context.Context, paperID string) (*Record, error) {
	records, err := c.fetchDetails(ctx, []string{paperID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (c *PubMedConnector) searchPMIDs(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(limit)},
		"retmode": {"json"},
		"tool":    {pubmedTool},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, pubmedESearchURL, params)
	if err != nil {
		return nil, err
	}

	var result esearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, scherrors.New(scherrors.ErrCodeMalformedPayload,
			"parse esearch response", err)
	}
	return result.ESearchResult.IDList, nil
}

// pubmedArticleSet mirrors the efetch XML we consume.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Medline struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Texts []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []struct {
				LastName string `xml:"LastName"`
				ForeName string `xml:"ForeName"`
			} `xml:"AuthorList>Author"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year string `xml:"Year"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	ArticleIDs []struct {
		IDType string `xml:"IdType,attr"`
		Value  string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

func (c *PubMedConnector) fetchDetails(ctx context.Context, pmids []string) ([]Record, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
		"tool":    {pubmedTool},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, pubmedEFetchURL, params)
	if err != nil {
		return nil, err
	}
	return parseArticleSet(body)
}

func parseArticleSet(body []byte) ([]Record, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, scherrors.New(scherrors.ErrCodeMalformedPayload,
			"parse efetch response", err)
	}

	records := make([]Record, 0, len(set.Articles))
	for _, article := range set.Articles {
		m := article.Medline
		pmid := strings.TrimSpace(m.PMID)
		if pmid == "" {
			continue
		}

		var authors []string
		for _, a := range m.Article.Authors {
			if a.LastName == "" {
				continue
			}
			name := a.LastName
			if a.ForeName != "" {
				name = a.ForeName + " " + name
			}
			authors = append(authors, name)
		}

		year := 0
		if m.Article.Journal.PubDate.Year != "" {
			year, _ = strconv.Atoi(m.Article.Journal.PubDate.Year)
		}

		doi := ""
		for _, id := range article.ArticleIDs {
			if id.IDType == "doi" {
				doi = strings.TrimSpace(id.Value)
				break
			}
		}

		records = append(records, Record{
			ID:       pmid,
			Title:    m.Article.Title,
			Abstract: strings.Join(m.Article.Abstract.Texts, " "),
			Authors:  authors,
			Year:     year,
			Journal:  m.Article.Journal.Title,
			DOI:      doi,
			URL:      fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
			Source:   SourcePubMed,
			Score:    1.0,
		})
	}
	return records, nil
}

func (c *PubMedConnector) addIdentity(params url.Values) {
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
}

func (c *PubMedConnector) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, scherrors.ConnectorError(SourcePubMed, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, scherrors.RateLimitError(SourcePubMed)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, scherrors.ConnectorError(SourcePubMed,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}

// Close releases idle connections.
func (c *PubMedConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
