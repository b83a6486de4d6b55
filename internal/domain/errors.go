package domain

import "errors"

var (
	// ErrSlugExhausted means the collision chain for one item exceeded the
	// retry bound; the item is dropped, the cycle continues.
	ErrSlugExhausted = errors.New("slug collision chain exhausted")

	// ErrDuplicateKey maps the store's unique-index violation at insert time.
	// Treated as a duplicate, never surfaced as a cycle failure.
	ErrDuplicateKey = errors.New("duplicate key in store")

	// ErrImageResolution means every fallback step, placeholder included,
	// failed. The article is persisted without a featured image.
	ErrImageResolution = errors.New("image resolution failed")

	// ErrCycleInFlight is returned to a trigger that lands while another
	// ingestion cycle holds the single-flight guard.
	ErrCycleInFlight = errors.New("ingestion cycle already in flight")

	// ErrEmptySlug marks a degenerate title that produced no slug material.
	ErrEmptySlug = errors.New("title yields empty slug")
)
