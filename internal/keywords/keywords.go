// Package keywords tokenizes headlines for tag derivation and image-search
// query building.
package keywords

import (
	"strings"
	"unicode"
)

// DefaultQuery is used when a title yields no usable tokens.
const DefaultQuery = "punjab news"

// allowlist holds curated news terms kept even when a token is not purely
// alphabetic (e.g. carries digits after punctuation stripping).
var allowlist = map[string]struct{}{
	"punjab":     {},
	"india":      {},
	"chandigarh": {},
	"amritsar":   {},
	"ludhiana":   {},
	"jalandhar":  {},
	"breaking":   {},
	"election":   {},
	"government": {},
	"police":     {},
	"court":      {},
	"minister":   {},
	"farmers":    {},
	"weather":    {},
	"flood":      {},
	"cricket":    {},
	"economy":    {},
	"border":     {},
	"diaspora":   {},
	"gurdwara":   {},
}

// Extract lowercases the title, strips punctuation, and returns up to max
// tokens that are allowlisted or purely alphabetic, in original order.
func Extract(title string, max int) []string {
	if max <= 0 {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, title)

	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if _, ok := allowlist[tok]; !ok && !alphabetic(tok) {
			continue
		}
		out = append(out, tok)
		if len(out) == max {
			break
		}
	}

	return out
}

// SearchQuery derives a short image-search query (up to 3 tokens) from the
// title, falling back to DefaultQuery when nothing survives.
func SearchQuery(title string) string {
	toks := Extract(title, 3)
	if len(toks) == 0 {
		return DefaultQuery
	}
	return strings.Join(toks, " ")
}

func alphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
