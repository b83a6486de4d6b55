package ports

import (
	"context"
	"time"

	"news-ingest/internal/domain"
)

// ArticleStore is the document-store collaborator. The core treats it as a
// filter-lookup plus insert service; uniqueness of slug is enforced by the
// store's own index.
type ArticleStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	ExistsByTitleOrURL(ctx context.Context, title, canonicalURL string) (bool, error)
	Insert(ctx context.Context, article domain.CandidateArticle) error
	FindWithoutImage(ctx context.Context, limit int) ([]domain.StoredArticleRef, error)
	SetImage(ctx context.Context, id string, image domain.ImageDescriptor) error
}

// SourceFilter normalizes publisher attribution in labels and article text.
type SourceFilter interface {
	FilterSourceLabel(name string) string
	CleanText(text string) string
}

// ImageSearcher asks an external service for a candidate image URL.
// Any failure is reported as an error and treated as "no image".
type ImageSearcher interface {
	Search(ctx context.Context, query, category string) (string, error)
}

// PageScraper pulls a usable image URL out of an article's own page.
type PageScraper interface {
	FindImage(ctx context.Context, pageURL string) (string, error)
}

// ImageProcessor normalizes raw image bytes to the site's target resolution
// and encoding.
type ImageProcessor interface {
	Normalize(data []byte) ([]byte, error)
}

// Pacer spaces outbound requests to external hosts.
type Pacer interface {
	Wait(ctx context.Context, url string) error
}

// FeedFetcher turns one configured feed into normalized candidates.
type FeedFetcher interface {
	Fetch(ctx context.Context, src domain.FeedSource) ([]domain.CandidateArticle, error)
}

// DedupGate guards inserts and finalizes slugs against the store.
type DedupGate interface {
	ShouldSkip(ctx context.Context, candidate domain.CandidateArticle) (bool, error)
	ResolveSlug(ctx context.Context, base string) (string, error)
}

// ImageResolver produces a featured image for a title, or nil when even the
// placeholder step failed.
type ImageResolver interface {
	FindBestImage(ctx context.Context, title, pageURL string) *domain.ImageDescriptor
}

// CycleRunner is what the scheduler drives; both cadences funnel through it.
type CycleRunner interface {
	RunFullCycle(ctx context.Context) (domain.CycleSummary, error)
	RunFeedOnlyCycle(ctx context.Context) (domain.CycleSummary, error)
}

// TaskID identifies one registered recurring task.
type TaskID int

// TimerDriver owns the recurring timers behind the scheduler. Stopping
// cancels future firings only; an in-flight job runs to completion.
type TimerDriver interface {
	Schedule(spec string, job func()) (TaskID, error)
	Remove(id TaskID)
	Next(id TaskID) time.Time
	Start()
	Stop()
}
