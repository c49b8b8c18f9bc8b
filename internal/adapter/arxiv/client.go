// Package arxiv searches the arXiv Atom API for recent papers.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paperscout/internal/paper"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) ID() string   { return "arxiv" }
func (c *Client) Name() string { return "arXiv" }

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Search returns up to limit papers matching the query, newest first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]paper.Document, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", limit))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating arxiv request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode, string(payload))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding arxiv feed: %w", err)
	}

	docs := make([]paper.Document, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		names := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			names = append(names, a.Name)
		}

		published := entry.Published
		if len(published) > 10 {
			published = published[:10]
		}

		docs = append(docs, paper.Document{
			Content: strings.TrimSpace(entry.Summary),
			Meta: paper.Metadata{
				SourceID:   c.ID(),
				SourceName: c.Name(),
				Title:      strings.TrimSpace(entry.Title),
				Published:  published,
				URL:        entry.ID,
				Extra:      map[string]string{"authors": strings.Join(names, ", ")},
			},
		})
	}
	return docs, nil
}
