package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultSearchURL is the Tavily API host.
	DefaultSearchURL = "https://api.tavily.com"

	DefaultMaxResults = 5
)

// ErrMissingSearchKey is returned when no Tavily key was configured.
var ErrMissingSearchKey = errors.New("search api key not configured")

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchClient queries the Tavily search API.
type SearchClient struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

func NewSearchClient(baseURL, apiKey string, timeout time.Duration) *SearchClient {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	return &SearchClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		httpClient: newHTTPClient(timeout),
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
	Topic       string `json:"topic,omitempty"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Detail  interface{}    `json:"detail,omitempty"`
}

// Search returns at most max results for query.
func (c *SearchClient) Search(ctx context.Context, query string, max int) ([]SearchResult, error) {
	if c.APIKey == "" {
		return nil, ErrMissingSearchKey
	}
	if max <= 0 {
		max = DefaultMaxResults
	}

	payload, err := json.Marshal(searchRequest{
		Query:       query,
		MaxResults:  max,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	var resp searchResponse
	if err := doJSON(ctx, c.httpClient, "search", req, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && resp.Detail != nil {
			se.Detail = fmt.Sprint(resp.Detail)
		}
		return nil, err
	}

	results := resp.Results
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}
