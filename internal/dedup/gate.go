// Package dedup decides whether a candidate article is already known to the
// store, and finalizes slugs against its unique index.
package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"news-ingest/internal/domain"
	"news-ingest/internal/ports"
)

// defaultMaxSlugAttempts bounds pathological collision chains.
const defaultMaxSlugAttempts = 1000

// Gate performs the title-OR-canonical-URL existence check and slug
// finalization. The OR match is deliberately conservative: a verbatim
// headline match skips the candidate even when URLs differ.
type Gate struct {
	store       ports.ArticleStore
	maxAttempts int
	logger      *slog.Logger
}

// NewGate wires the document store; maxAttempts <= 0 uses the default bound.
func NewGate(store ports.ArticleStore, maxAttempts int, logger *slog.Logger) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxSlugAttempts
	}
	return &Gate{store: store, maxAttempts: maxAttempts, logger: logger}
}

// ShouldSkip reports whether an existing record matches the candidate's title
// or canonical URL. Callers run this before slug finalization and once more
// right before insert to narrow the check/insert gap.
func (g *Gate) ShouldSkip(ctx context.Context, candidate domain.CandidateArticle) (bool, error) {
	exists, err := g.store.ExistsByTitleOrURL(ctx, candidate.Title, candidate.CanonicalURL)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return exists, nil
}

// ResolveSlug returns the base slug if unused, otherwise appends -1, -2, ...
// re-checking the store each time. One round-trip per collision; the bound
// exists only to stop pathological loops.
func (g *Gate) ResolveSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		return "", domain.ErrEmptySlug
	}

	candidate := base
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		taken, err := g.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug lookup %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}

	if g.logger != nil {
		g.logger.Warn("slug collision chain exhausted", "base", base, "attempts", g.maxAttempts)
	}
	return "", domain.ErrSlugExhausted
}
