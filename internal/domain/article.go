package domain

import "time"

// Category is the fixed set of publishable article buckets.
type Category string

const (
	CategoryNational      Category = "national"
	CategoryInternational Category = "international"
	CategoryPolitics      Category = "politics"
	CategorySports        Category = "sports"
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryTechnology    Category = "technology"
	CategoryHealth        Category = "health"
	CategoryGeneral       Category = "general"
)

// SourceFiltered marks provenance when the feed's publisher name was
// suppressed by the attribution filter; the field is never left blank.
const SourceFiltered = "filtered"

// FeedSource is one configured external feed endpoint. Loaded at startup,
// immutable during a run.
type FeedSource struct {
	Name     string
	URL      string
	Category string
}

// RawFeedItem is the transient shape produced by feed parsing, consumed
// immediately and never persisted.
type RawFeedItem struct {
	Title     string
	Link      string
	Published time.Time
	Snippet   string
	Content   string
	MediaURL  string
}

// SEOMetadata travels with every candidate into the store.
type SEOMetadata struct {
	Title       string
	Description string
	Keywords    []string
	Canonical   string
}

// ImageDescriptor references a featured image, sourced externally or
// synthesized, always normalized to the target resolution before use.
type ImageDescriptor struct {
	URL         string
	Alt         string
	Caption     string
	Attribution string
}

// CandidateArticle is the in-memory normalized projection of one feed item.
// It exists only until persisted or skipped.
type CandidateArticle struct {
	Title        string
	Excerpt      string
	Content      string
	Slug         string
	Category     Category
	Source       string
	CanonicalURL string
	Tags         []string
	SEO          SEOMetadata
	Image        *ImageDescriptor
	PublishedAt  time.Time
}

// StoredArticleRef is the minimal view of a persisted article the ingestion
// core needs for image backfill.
type StoredArticleRef struct {
	ID    string
	Title string
	Slug  string
}

// CycleSummary is what every ingestion cycle returns, partial failures
// included.
type CycleSummary struct {
	Saved      int
	Duplicates int
	Failed     int
}

// SchedulerStatus is the ops-facing snapshot of the recurring tasks.
type SchedulerStatus struct {
	Enabled     bool
	LastRun     *time.Time
	NextRun     *time.Time
	ActiveTasks int
}
