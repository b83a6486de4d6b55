// Package pacing spaces outbound requests per upstream host so recurring
// cycles stay polite to external services.
package pacing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"news-ingest/internal/ports"
)

// HostPacer keeps one token-bucket limiter per host; the first request to a
// host passes immediately, later ones wait out the interval.
type HostPacer struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

var _ ports.Pacer = (*HostPacer)(nil)

// NewHostPacer builds a pacer with the given minimum spacing per host.
func NewHostPacer(interval time.Duration) *HostPacer {
	return &HostPacer{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the host behind urlStr may be contacted again.
func (h *HostPacer) Wait(ctx context.Context, urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return err
	}

	host := parsed.Host
	if host == "" {
		return &url.Error{Op: "parse", URL: urlStr, Err: errors.New("missing host in URL")}
	}

	return h.limiterFor(host).Wait(ctx)
}

func (h *HostPacer) limiterFor(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, exists := h.limiters[host]
	h.mu.RUnlock()

	if exists {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if limiter, exists := h.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = limiter
	return limiter
}
