// Package semanticscholar searches the Semantic Scholar Graph API.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paperscout/internal/paper"
)

const (
	defaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// maxLimit is the largest page the graph API accepts per request.
	maxLimit = 100
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client. apiKey is optional; without one the shared
// public rate limit applies.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) ID() string   { return "semantic_scholar" }
func (c *Client) Name() string { return "Semantic Scholar" }

type searchResponse struct {
	Data []struct {
		PaperID  string `json:"paperId"`
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
		URL      string `json:"url"`
		Year     int    `json:"year"`
		Authors  []struct {
			Name string `json:"name"`
		} `json:"authors"`
	} `json:"data"`
}

// Search returns up to limit papers for the query. Limits above the API
// maximum are clamped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]paper.Document, error) {
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", "title,authors,year,abstract,url,paperId")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating semantic scholar request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling semantic scholar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("semantic scholar returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding semantic scholar response: %w", err)
	}

	docs := make([]paper.Document, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		names := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			names = append(names, a.Name)
		}

		year := ""
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}

		link := p.URL
		if link == "" {
			link = "https://www.semanticscholar.org/paper/" + p.PaperID
		}

		content := fmt.Sprintf("TITLE: %s\nAUTHORS: %s\nYEAR: %s\n\nABSTRACT: %s",
			p.Title, strings.Join(names, ", "), year, p.Abstract)

		docs = append(docs, paper.Document{
			Content: content,
			Meta: paper.Metadata{
				SourceID:   c.ID(),
				SourceName: c.Name(),
				Title:      p.Title,
				Published:  year,
				URL:        link,
				Extra:      map[string]string{"authors": strings.Join(names, ", ")},
			},
		})
	}
	return docs, nil
}
