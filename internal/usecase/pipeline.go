package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"news-ingest/internal/domain"
	"news-ingest/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Feeds         []domain.FeedSource
	Fetcher       ports.FeedFetcher
	Gate          ports.DedupGate
	Images        ports.ImageResolver
	Store         ports.ArticleStore
	Pacer         ports.Pacer
	Logger        *slog.Logger
	BackfillLimit int
}

// Pipeline runs one ingestion cycle: fetch every configured feed, dedup,
// finalize slugs, optionally resolve images, persist. Feeds are processed
// sequentially with pacing between them; there is no fan-out.
type Pipeline struct {
	feeds         []domain.FeedSource
	fetcher       ports.FeedFetcher
	gate          ports.DedupGate
	images        ports.ImageResolver
	store         ports.ArticleStore
	pacer         ports.Pacer
	logger        *slog.Logger
	backfillLimit int

	// mu is the single-flight guard: one cycle at a time, a concurrent
	// trigger gets ErrCycleInFlight instead of racing the dedup gate.
	mu sync.Mutex
}

var _ ports.CycleRunner = (*Pipeline)(nil)

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		feeds:         deps.Feeds,
		fetcher:       deps.Fetcher,
		gate:          deps.Gate,
		images:        deps.Images,
		store:         deps.Store,
		pacer:         deps.Pacer,
		logger:        deps.Logger,
		backfillLimit: deps.BackfillLimit,
	}
}

// RunFullCycle ingests all feeds with image resolution, then backfills
// images on recently stored articles that still lack one.
func (p *Pipeline) RunFullCycle(ctx context.Context) (domain.CycleSummary, error) {
	return p.runCycle(ctx, true)
}

// RunFeedOnlyCycle ingests all feeds without touching the image chain.
func (p *Pipeline) RunFeedOnlyCycle(ctx context.Context) (domain.CycleSummary, error) {
	return p.runCycle(ctx, false)
}

func (p *Pipeline) runCycle(ctx context.Context, withImages bool) (domain.CycleSummary, error) {
	if !p.mu.TryLock() {
		return domain.CycleSummary{}, domain.ErrCycleInFlight
	}
	defer p.mu.Unlock()

	var summary domain.CycleSummary

	for _, src := range p.feeds {
		if p.pacer != nil {
			if err := p.pacer.Wait(ctx, src.URL); err != nil {
				// pacing only fails when the cycle itself is being torn down
				return summary, err
			}
		}

		candidates, err := p.fetcher.Fetch(ctx, src)
		if err != nil {
			p.log().Warn("feed unavailable, skipping", "feed", src.Name, "error", err)
			continue
		}

		p.log().Debug("feed fetched", "feed", src.Name, "items", len(candidates))
		for _, candidate := range candidates {
			p.processCandidate(ctx, candidate, withImages, &summary)
		}
	}

	if withImages {
		p.backfillImages(ctx)
	}

	p.log().Info("cycle finished",
		"saved", summary.Saved,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
		"with_images", withImages,
	)
	return summary, nil
}

func (p *Pipeline) processCandidate(ctx context.Context, candidate domain.CandidateArticle, withImages bool, summary *domain.CycleSummary) {
	skip, err := p.gate.ShouldSkip(ctx, candidate)
	if err != nil {
		summary.Failed++
		p.log().Error("dedup check failed", "title", candidate.Title, "error", err)
		return
	}
	if skip {
		summary.Duplicates++
		return
	}

	if candidate.Slug == "" {
		summary.Failed++
		p.log().Warn("degenerate title produced empty slug", "title", candidate.Title)
		return
	}

	finalSlug, err := p.gate.ResolveSlug(ctx, candidate.Slug)
	if err != nil {
		summary.Failed++
		p.log().Warn("slug finalization failed", "title", candidate.Title, "error", err)
		return
	}
	candidate.Slug = finalSlug

	if withImages && candidate.Image == nil && p.images != nil {
		if desc := p.images.FindBestImage(ctx, candidate.Title, candidate.CanonicalURL); desc != nil {
			candidate.Image = desc
		} else {
			p.log().Warn("persisting without featured image", "title", candidate.Title)
		}
	}

	// Re-verify right before insert: another cycle may have persisted the
	// same story between the first check and now.
	skip, err = p.gate.ShouldSkip(ctx, candidate)
	if err != nil {
		summary.Failed++
		p.log().Error("pre-insert dedup check failed", "title", candidate.Title, "error", err)
		return
	}
	if skip {
		summary.Duplicates++
		return
	}

	switch err := p.store.Insert(ctx, candidate); {
	case err == nil:
		summary.Saved++
	case errors.Is(err, domain.ErrDuplicateKey):
		summary.Duplicates++
	default:
		summary.Failed++
		p.log().Error("insert failed", "slug", candidate.Slug, "error", err)
	}
}

// backfillImages attaches images to recently persisted articles that still
// lack one. Failures only log; the cycle summary covers feed items only.
func (p *Pipeline) backfillImages(ctx context.Context) {
	if p.images == nil || p.backfillLimit <= 0 {
		return
	}

	refs, err := p.store.FindWithoutImage(ctx, p.backfillLimit)
	if err != nil {
		p.log().Error("image backfill lookup failed", "error", err)
		return
	}

	for _, ref := range refs {
		desc := p.images.FindBestImage(ctx, ref.Title, "")
		if desc == nil {
			p.log().Warn("backfill could not resolve image", "slug", ref.Slug)
			continue
		}
		if err := p.store.SetImage(ctx, ref.ID, *desc); err != nil {
			p.log().Error("backfill update failed", "slug", ref.Slug, "error", err)
		}
	}

	if len(refs) > 0 {
		p.log().Info("image backfill pass done", "articles", len(refs))
	}
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
