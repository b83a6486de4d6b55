package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"news-ingest/internal/dedup"
	"news-ingest/internal/domain"
)

type memStore struct {
	mu        sync.Mutex
	slugs     map[string]bool
	titles    map[string]bool
	urls      map[string]bool
	inserted  []domain.CandidateArticle
	insertErr error
	noImage   []domain.StoredArticleRef
	images    map[string]domain.ImageDescriptor
}

func newMemStore() *memStore {
	return &memStore{
		slugs:  map[string]bool{},
		titles: map[string]bool{},
		urls:   map[string]bool{},
		images: map[string]domain.ImageDescriptor{},
	}
}

func (m *memStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugs[slug], nil
}

func (m *memStore) ExistsByTitleOrURL(ctx context.Context, title, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.titles[title] || m.urls[url], nil
}

func (m *memStore) Insert(ctx context.Context, article domain.CandidateArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.slugs[article.Slug] {
		return domain.ErrDuplicateKey
	}
	m.slugs[article.Slug] = true
	m.titles[article.Title] = true
	m.urls[article.CanonicalURL] = true
	m.inserted = append(m.inserted, article)
	return nil
}

func (m *memStore) FindWithoutImage(ctx context.Context, limit int) ([]domain.StoredArticleRef, error) {
	if limit < len(m.noImage) {
		return m.noImage[:limit], nil
	}
	return m.noImage, nil
}

func (m *memStore) SetImage(ctx context.Context, id string, image domain.ImageDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[id] = image
	return nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]domain.CandidateArticle
	errs    map[string]error
	block   chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, src domain.FeedSource) ([]domain.CandidateArticle, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.results[src.Name], nil
}

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	desc  *domain.ImageDescriptor
}

func (f *fakeResolver) FindBestImage(ctx context.Context, title, pageURL string) *domain.ImageDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.desc
}

func candidate(title, slugBase, url string) domain.CandidateArticle {
	return domain.CandidateArticle{
		Title:        title,
		Slug:         slugBase,
		CanonicalURL: url,
		Category:     domain.CategoryGeneral,
		Source:       "Wire",
		PublishedAt:  time.Now(),
	}
}

func TestCycleSurvivesBrokenFeed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.titles["Already Known Headline For Dedup Checks"] = true

	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"healthy": {
				candidate("Fresh Headline About Local Elections Today", "fresh-headline-about-local-elections-today", "http://a.example.com/1"),
				candidate("Already Known Headline For Dedup Checks", "already-known-headline-for-dedup-checks", "http://a.example.com/2"),
			},
		},
		errs: map[string]error{"broken": errors.New("connection refused")},
	}

	p := NewPipeline(PipelineDeps{
		Feeds: []domain.FeedSource{
			{Name: "broken", URL: "http://broken.example.com/rss"},
			{Name: "healthy", URL: "http://healthy.example.com/rss"},
		},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Store:   store,
	})

	summary, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Saved)
	require.Equal(t, 1, summary.Duplicates)
	require.Equal(t, 0, summary.Failed)
	require.Len(t, store.inserted, 1)
}

func TestCycleResolvesSlugCollisions(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.slugs["a-story"] = true
	store.slugs["a-story-1"] = true

	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"wire": {candidate("A Story With A Colliding Slug Base", "a-story", "http://a.example.com/3")},
		},
	}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Store:   store,
	})

	summary, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Saved)
	require.Equal(t, "a-story-2", store.inserted[0].Slug)
}

func TestCycleCountsEmptySlugAsFailed(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"wire": {candidate("Degenerate Title That Cleaned To Nothing", "", "http://a.example.com/4")},
		},
	}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Store:   store,
	})

	summary, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 0, summary.Saved)
}

func TestFullCycleAttachesImages(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"wire": {candidate("Headline That Needs A Featured Image", "headline-that-needs-a-featured-image", "http://a.example.com/5")},
		},
	}
	resolver := &fakeResolver{desc: &domain.ImageDescriptor{URL: "/images/news/x.jpg", Attribution: "placeholder"}}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Images:  resolver,
		Store:   store,
	})

	summary, err := p.RunFullCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Saved)
	require.NotNil(t, store.inserted[0].Image)
	require.Equal(t, "/images/news/x.jpg", store.inserted[0].Image.URL)
}

func TestFeedOnlyCycleSkipsImageChain(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"wire": {candidate("Headline Processed Without Image Lookup", "headline-processed-without-image-lookup", "http://a.example.com/6")},
		},
	}
	resolver := &fakeResolver{desc: &domain.ImageDescriptor{URL: "/images/news/y.jpg"}}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Images:  resolver,
		Store:   store,
	})

	_, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Nil(t, store.inserted[0].Image)
	require.Equal(t, 0, resolver.calls)
}

func TestCycleTreatsInsertConflictAsDuplicate(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.insertErr = domain.ErrDuplicateKey

	fetcher := &fakeFetcher{
		results: map[string][]domain.CandidateArticle{
			"wire": {candidate("Race Lost At Insert Time To Another Cycle", "race-lost-at-insert-time", "http://a.example.com/7")},
		},
	}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Store:   store,
	})

	summary, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Duplicates)
	require.Equal(t, 0, summary.Failed)
}

func TestCycleSingleFlight(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	block := make(chan struct{})
	fetcher := &fakeFetcher{block: block}

	p := NewPipeline(PipelineDeps{
		Feeds:   []domain.FeedSource{{Name: "wire", URL: "http://wire.example.com/rss"}},
		Fetcher: fetcher,
		Gate:    dedup.NewGate(store, 0, nil),
		Store:   store,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.RunFeedOnlyCycle(context.Background())
	}()

	// wait for the first cycle to take the guard
	require.Eventually(t, func() bool {
		_, err := p.RunFullCycle(context.Background())
		return errors.Is(err, domain.ErrCycleInFlight)
	}, time.Second, 5*time.Millisecond)

	close(block)
	<-done

	summary, err := p.RunFeedOnlyCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.CycleSummary{}, summary)
}

func TestFullCycleBackfillsImages(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.noImage = []domain.StoredArticleRef{
		{ID: "64f000000000000000000001", Title: "Old Story Missing Its Featured Image", Slug: "old-story"},
	}
	resolver := &fakeResolver{desc: &domain.ImageDescriptor{URL: "/images/news/z.jpg"}}

	p := NewPipeline(PipelineDeps{
		Feeds:         nil,
		Fetcher:       &fakeFetcher{},
		Gate:          dedup.NewGate(store, 0, nil),
		Images:        resolver,
		Store:         store,
		BackfillLimit: 10,
	})

	_, err := p.RunFullCycle(context.Background())
	require.NoError(t, err)
	require.Contains(t, store.images, "64f000000000000000000001")
}
