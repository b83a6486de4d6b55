// Package sourcefilter strips known publisher names and attribution
// boilerplate from ingested labels and text.
package sourcefilter

import (
	"regexp"
	"strings"

	"news-ingest/internal/ports"
)

// DefaultSources is the maintained list of publisher and aggregator names the
// filter matches against. Order matters for text cleaning: longer, more
// specific names first so "Times of India" wins over "India".
var DefaultSources = []string{
	"Times of India",
	"Hindustan Times",
	"The Indian Express",
	"Indian Express",
	"The Tribune",
	"Tribune India",
	"The Hindu",
	"Economic Times",
	"India Today",
	"Zee News",
	"Aaj Tak",
	"ABP News",
	"News18",
	"NDTV",
	"BBC News",
	"CNN",
	"Reuters",
	"Associated Press",
	"AFP",
	"ANI",
	"PTI",
	"Google News",
	"Yahoo News",
	"MSN",
	"Dainik Bhaskar",
	"Dainik Jagran",
	"Punjab Kesari",
	"Jagbani",
	"Ajit",
}

type trailingPattern struct {
	source string
	re     *regexp.Regexp
}

// Filter matches labels and text against a fixed, ordered source-name list.
// Substring matching runs in both directions, so incidental overlap produces
// false positives; that bluntness is intentional and callers must not work
// around it per-case.
type Filter struct {
	sources  []string
	lowered  []string
	trailing []trailingPattern
	inline   []*regexp.Regexp
}

var _ ports.SourceFilter = (*Filter)(nil)

// New compiles the matching patterns for the given source-name list; an empty
// list falls back to DefaultSources.
func New(sources []string) *Filter {
	if len(sources) == 0 {
		sources = DefaultSources
	}

	f := &Filter{sources: sources}
	for _, src := range sources {
		f.lowered = append(f.lowered, strings.ToLower(src))
		// trailing "- Source", "| Source", ": Source" or bare " Source"
		f.trailing = append(f.trailing, trailingPattern{
			source: src,
			re:     regexp.MustCompile(`(?i)\s*[-–—|:]?\s*` + regexp.QuoteMeta(src) + `\s*$`),
		})
	}

	f.inline = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(\s*source\s*:[^)]*\)`),
		regexp.MustCompile(`(?i)\bsource\s*:\s*[^.!?]*$`),
	}

	return f
}

// FilterSourceLabel returns "" when the name matches any listed source in
// either substring direction, otherwise the name unchanged.
func (f *Filter) FilterSourceLabel(name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}

	for _, src := range f.lowered {
		if strings.Contains(needle, src) || strings.Contains(src, needle) {
			return ""
		}
	}

	return name
}

// CleanText removes trailing source suffixes and inline attribution clauses.
// Suffix removal repeats until no listed name remains at the end, so the
// function is idempotent: cleaning cleaned text is a no-op.
func (f *Filter) CleanText(text string) string {
	out := strings.TrimSpace(text)

	for _, re := range f.inline {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}

	for changed := true; changed; {
		changed = false
		for _, p := range f.trailing {
			next := strings.TrimSpace(p.re.ReplaceAllString(out, ""))
			if next != out {
				out = next
				changed = true
			}
		}
	}

	return out
}
