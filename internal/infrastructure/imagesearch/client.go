// Package imagesearch calls an external image-search API and returns a
// candidate image URL for a query.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"news-ingest/internal/ports"
)

// Client queries an Openverse-style JSON endpoint. Any non-success response
// is an error; the caller treats errors as "no image found".
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.ImageSearcher = (*Client)(nil)

// NewClient wires endpoint and optional API key.
func NewClient(endpoint, apiKey string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, client: client}
}

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// Search returns the first usable result URL for query plus a topical
// category tag.
func (c *Client) Search(ctx context.Context, query, category string) (string, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}

	params := endpoint.Query()
	params.Set("q", query+" "+category)
	params.Set("page_size", "5")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "news-ingest/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned %s", resp.Status)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	for _, result := range decoded.Results {
		if result.URL != "" {
			return result.URL, nil
		}
	}

	return "", fmt.Errorf("no results for %q", query)
}
