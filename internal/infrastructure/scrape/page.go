// Package scrape pulls featured-image URLs out of article pages.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news-ingest/internal/ports"
)

// metaSelectors in preference order; most publishers set og:image.
var metaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// PageScraper fetches an article page and reads its social-preview image.
type PageScraper struct {
	client *http.Client
}

var _ ports.PageScraper = (*PageScraper)(nil)

// NewPageScraper wires an HTTP client.
func NewPageScraper(client *http.Client) *PageScraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageScraper{client: client}
}

// FindImage returns an absolute image URL from the page's meta tags, or an
// error when the page has none worth using.
func (p *PageScraper) FindImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "news-ingest/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}

	for _, selector := range metaSelectors {
		content, ok := doc.Find(selector).First().Attr("content")
		if !ok {
			continue
		}
		if resolved := resolveImageURL(base, content); resolved != "" {
			return resolved, nil
		}
	}

	if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok {
		if resolved := resolveImageURL(base, href); resolved != "" {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("no usable image on %s", pageURL)
}

func resolveImageURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(strings.ToLower(raw), ".svg") {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
