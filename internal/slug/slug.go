// Package slug derives URL-safe identifiers from free-text titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// Make lowercases the title, strips everything outside [a-z0-9\s-], turns
// whitespace runs into single hyphens, collapses repeated hyphens and trims
// the edges. Pure and total; degenerate input yields "", which callers must
// reject themselves.
func Make(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
