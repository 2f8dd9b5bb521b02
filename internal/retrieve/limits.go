// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/groundwork/pkg/types"
)

// charsPerToken approximates tokenizer density for English prose.
const charsPerToken = 4

// Ellipsis is appended to truncated excerpts.
const Ellipsis = "…"

var (
	broadKeywords     = []string{"competitor", "competitive position", "recommended strategy"}
	technicalKeywords = []string{"architecture", "infrastructure", "performance", "security requirements"}
)

// Limits are the effective retrieval bounds for one run.
type Limits struct {
	SearchDepth     int
	BroadCap        int
	TechnicalCap    int
	DefaultCap      int
	Ceiling         int
	MaxExcerptChars int
}

// NewLimits derives the run's limits from cfg. When cfg.ContextTokens is
// set the ceiling shrinks until every question's excerpts fit the token
// budget left after ReservedTokens; it never drops below 1.
func NewLimits(cfg types.RetrievalConfig, questions int) Limits {
	l := Limits{
		SearchDepth:     cfg.SearchDepth,
		BroadCap:        cfg.BroadCap,
		TechnicalCap:    cfg.TechnicalCap,
		DefaultCap:      cfg.DefaultCap,
		Ceiling:         cfg.Ceiling,
		MaxExcerptChars: cfg.MaxExcerptChars,
	}
	if cfg.ContextTokens <= 0 || questions <= 0 {
		return l
	}

	budget := cfg.ContextTokens - cfg.ReservedTokens
	perExcerpt := max(1, cfg.MaxExcerptChars/charsPerToken)
	fit := budget / (questions * perExcerpt)
	l.Ceiling = max(1, min(l.Ceiling, fit))
	return l
}

// ResultCap returns how many excerpts question may keep.
func ResultCap(question string, l Limits) int {
	q := strings.ToLower(question)
	c := l.DefaultCap
	switch {
	case containsAny(q, broadKeywords):
		c = l.BroadCap
	case containsAny(q, technicalKeywords):
		c = l.TechnicalCap
	}
	return min(c, l.Ceiling)
}

// Truncate shortens text to at most maxChars runes, cutting at the last
// whitespace before the limit and appending Ellipsis. Text within the
// limit is returned unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)[:maxChars]
	cut := string(runes)
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace) + Ellipsis
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
