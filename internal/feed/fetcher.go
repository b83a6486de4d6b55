// Package feed retrieves external feeds and normalizes their items into
// candidate articles.
package feed

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"news-ingest/internal/domain"
	"news-ingest/internal/keywords"
	"news-ingest/internal/ports"
	"news-ingest/internal/slug"
)

const (
	// minTitleLength rejects feed noise and empty headlines.
	minTitleLength = 10
	// excerptLimit caps the derived excerpt before the ellipsis.
	excerptLimit = 200
	// maxTags bounds headline-derived tags per article.
	maxTags = 5
)

var markupExpr = regexp.MustCompile(`<[^>]*>`)

// Fetcher turns one configured feed endpoint into normalized candidates.
// It never persists and never finalizes slugs; the pipeline owns both.
type Fetcher struct {
	parser     *gofeed.Parser
	filter     ports.SourceFilter
	categories map[string]domain.Category
	logger     *slog.Logger
}

// NewFetcher wires a gofeed parser over the given HTTP client.
func NewFetcher(client *http.Client, filter ports.SourceFilter, categories map[string]domain.Category, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "news-ingest/1.0"

	return &Fetcher{
		parser:     parser,
		filter:     filter,
		categories: categories,
		logger:     logger,
	}
}

// Fetch retrieves and parses one feed. A network or parse failure is
// returned to the caller, who skips this feed and continues the cycle.
func (f *Fetcher) Fetch(ctx context.Context, src domain.FeedSource) ([]domain.CandidateArticle, error) {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	category := f.mapCategory(src)
	label := f.sourceLabel(src)

	candidates := make([]domain.CandidateArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}
		raw := rawItem(item)

		title := f.filter.CleanText(stripMarkup(raw.Title))
		if utf8.RuneCountInString(title) < minTitleLength {
			f.debug("title below minimum length", "feed", src.Name, "title", title)
			continue
		}

		excerpt := deriveExcerpt(f.filter.CleanText(bestText(raw, title)))
		tags := keywords.Extract(title, maxTags)

		candidates = append(candidates, domain.CandidateArticle{
			Title:        title,
			Excerpt:      excerpt,
			Content:      f.filter.CleanText(stripMarkup(raw.Content)),
			Slug:         slug.Make(title),
			Category:     category,
			Source:       label,
			CanonicalURL: raw.Link,
			Tags:         tags,
			SEO: domain.SEOMetadata{
				Title:       title,
				Description: excerpt,
				Keywords:    tags,
				Canonical:   raw.Link,
			},
			// Featured image deliberately left empty: feed thumbnails are
			// too often low quality or unrelated. The fallback chain or
			// manual curation fills it later.
			Image:       nil,
			PublishedAt: raw.Published,
		})
	}

	return candidates, nil
}

// rawItem projects a gofeed item into the transient intermediate shape.
func rawItem(item *gofeed.Item) domain.RawFeedItem {
	raw := domain.RawFeedItem{
		Title:     item.Title,
		Link:      item.Link,
		Snippet:   item.Description,
		Content:   item.Content,
		Published: time.Now().UTC(),
	}
	if item.PublishedParsed != nil {
		raw.Published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		raw.Published = *item.UpdatedParsed
	}
	if item.Image != nil {
		raw.MediaURL = item.Image.URL
	}
	return raw
}

func (f *Fetcher) mapCategory(src domain.FeedSource) domain.Category {
	if cat, ok := f.categories[strings.ToLower(src.Category)]; ok {
		return cat
	}
	f.debug("unmapped feed category, using general", "feed", src.Name, "category", src.Category)
	return domain.CategoryGeneral
}

func (f *Fetcher) sourceLabel(src domain.FeedSource) string {
	if label := f.filter.FilterSourceLabel(src.Name); label != "" {
		return label
	}
	if f.logger != nil {
		f.logger.Info("source label filtered", "feed", src.Name)
	}
	return domain.SourceFiltered
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

// bestText picks the richest available text: description snippet, then full
// content, then the title itself.
func bestText(raw domain.RawFeedItem, title string) string {
	for _, candidate := range []string{raw.Snippet, raw.Content} {
		if text := stripMarkup(candidate); text != "" {
			return text
		}
	}
	return title
}

func deriveExcerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:excerptLimit])) + "..."
}

func stripMarkup(s string) string {
	s = markupExpr.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

