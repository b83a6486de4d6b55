// Package images resolves a featured image for articles that arrived without
// one: article-page scrape, then external search, then a synthesized
// placeholder, in that order.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"news-ingest/internal/domain"
	"news-ingest/internal/keywords"
	"news-ingest/internal/ports"
	"news-ingest/internal/slug"
)

// maxDownloadBytes caps one image download.
const maxDownloadBytes = 8 << 20

// maxFileSlug keeps generated file names short.
const maxFileSlug = 40

// searchCategories: one is picked at random per search to vary results for
// similar headlines.
var searchCategories = []string{"news", "newspaper", "city", "india", "press"}

// Config tunes the chain; all fields are required.
type Config struct {
	Dir          string
	PublicPrefix string
	Caption      string
	Width        int
	Height       int
	Quality      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// Chain walks the fallback steps for one title. Earlier steps may fail
// freely; only a placeholder-rendering failure makes the whole resolution
// fail.
type Chain struct {
	cfg       Config
	searcher  ports.ImageSearcher
	scraper   ports.PageScraper
	processor ports.ImageProcessor
	client    *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewChain wires the collaborators; scraper and searcher may be nil, which
// skips their steps.
func NewChain(cfg Config, searcher ports.ImageSearcher, scraper ports.PageScraper, processor ports.ImageProcessor, client *http.Client, logger *slog.Logger) *Chain {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Chain{
		cfg:       cfg,
		searcher:  searcher,
		scraper:   scraper,
		processor: processor,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveImage runs the chain once. A non-nil descriptor always references a
// normalized file already written under the images directory.
func (c *Chain) ResolveImage(ctx context.Context, title, pageURL string) (*domain.ImageDescriptor, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrImageResolution)
	}

	if c.scraper != nil && pageURL != "" {
		if desc := c.tryRemote(ctx, title, "scrape", func() (string, error) {
			return c.scraper.FindImage(ctx, pageURL)
		}); desc != nil {
			return desc, nil
		}
	}

	if c.searcher != nil {
		query := keywords.SearchQuery(title)
		category := searchCategories[rand.IntN(len(searchCategories))]
		if desc := c.tryRemote(ctx, title, "search", func() (string, error) {
			return c.searcher.Search(ctx, query, category)
		}); desc != nil {
			return desc, nil
		}
	}

	data, err := renderPlaceholder(title, c.cfg.Width, c.cfg.Height, c.cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("%w: placeholder: %v", domain.ErrImageResolution, err)
	}

	desc, err := c.save(data, title, "placeholder")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageResolution, err)
	}
	return desc, nil
}

// FindBestImage retries the whole chain when an attempt returns nothing at
// all. Search misses do not trigger retries; the placeholder step already
// covers them. Returns nil only when every attempt failed outright.
func (c *Chain) FindBestImage(ctx context.Context, title, pageURL string) *domain.ImageDescriptor {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		desc, err := c.ResolveImage(ctx, title, pageURL)
		if err == nil {
			return desc
		}

		c.warn("image resolution attempt failed", "title", title, "attempt", attempt, "error", err)
		if attempt < attempts {
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil
			}
		}
	}

	return nil
}

// tryRemote downloads and saves a URL produced by one chain step; any
// failure logs and falls through to the next step.
func (c *Chain) tryRemote(ctx context.Context, title, origin string, locate func() (string, error)) *domain.ImageDescriptor {
	imageURL, err := locate()
	if err != nil || imageURL == "" {
		c.debug("image step produced nothing", "step", origin, "title", title, "error", err)
		return nil
	}

	data, err := c.download(ctx, imageURL)
	if err != nil {
		c.warn("image download failed", "step", origin, "url", imageURL, "error", err)
		return nil
	}

	desc, err := c.save(data, title, origin)
	if err != nil {
		c.warn("image save failed", "step", origin, "url", imageURL, "error", err)
		return nil
	}
	return desc
}

func (c *Chain) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "news-ingest/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}

// save normalizes the bytes and writes them at a deterministic path derived
// from the sanitized title plus a timestamp. The write goes through a temp
// file in the same directory so a failure never leaves partial output.
func (c *Chain) save(data []byte, title, origin string) (*domain.ImageDescriptor, error) {
	normalized := data
	if origin != "placeholder" && c.processor != nil {
		var err error
		normalized, err = c.processor.Normalize(data)
		if err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
	}

	if err := os.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d.jpg", fileSlug(title), c.now().Unix())

	tmp, err := os.CreateTemp(c.cfg.Dir, ".download-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(normalized); err != nil {
		c.discardTemp(tmp)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		c.removeTemp(tmp.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	final := filepath.Join(c.cfg.Dir, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		c.removeTemp(tmp.Name())
		return nil, fmt.Errorf("finalize image file: %w", err)
	}

	return &domain.ImageDescriptor{
		URL:         c.cfg.PublicPrefix + "/" + name,
		Alt:         title,
		Caption:     c.cfg.Caption,
		Attribution: origin,
	}, nil
}

func (c *Chain) discardTemp(f *os.File) {
	_ = f.Close()
	c.removeTemp(f.Name())
}

func (c *Chain) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.warn("temp cleanup failed", "path", path, "error", err)
	}
}

func fileSlug(title string) string {
	s := slug.Make(title)
	if s == "" {
		s = "article"
	}
	if len(s) > maxFileSlug {
		s = s[:maxFileSlug]
		for len(s) > 0 && s[len(s)-1] == '-' {
			s = s[:len(s)-1]
		}
	}
	return s
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
