// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"strings"

	"github.com/pdiddy/groundwork/pkg/types"
)

// Tag classifies a policy phrase.
type Tag string

const (
	// TagPositive marks praise: the audit approved something rather than
	// flagging it.
	TagPositive Tag = "positive"

	// TagFalsePositive marks complaints known to misfire on correct
	// not-found or formatting behavior.
	TagFalsePositive Tag = "false-positive"
)

// Phrase is one row of the policy table.
type Phrase struct {
	Text string
	Tag  Tag
}

var defaultPhrases = []Phrase{
	{"accurately", TagPositive},
	{"properly cited", TagPositive},
	{"correctly cited", TagPositive},
	{"consistent with", TagPositive},
	{"well supported", TagPositive},
	{"well-supported", TagPositive},
	{"is supported by", TagPositive},
	{"correctly acknowledges", TagPositive},
	{"appropriately", TagPositive},
	{"no hallucination", TagPositive},

	{"not found in sources", TagFalsePositive},
	{"lacks proper numbering", TagFalsePositive},
	{"numbering", TagFalsePositive},
	{"could be more detailed", TagFalsePositive},
	{"could provide more detail", TagFalsePositive},
	{"missing information", TagFalsePositive},
	{"should include", TagFalsePositive},
	{"more context", TagFalsePositive},
}

// Policy drops audit issues that match a phrase table.
type Policy struct {
	phrases []Phrase
}

// DefaultPolicy returns the built-in table.
func DefaultPolicy() Policy {
	return Policy{phrases: append([]Phrase(nil), defaultPhrases...)}
}

// NewPolicy builds the table from config: the built-in rows plus the
// configured phrases, or only the configured phrases when ReplaceDefaults
// is set.
func NewPolicy(cfg types.VerifierConfig) Policy {
	var p Policy
	if !cfg.ReplaceDefaults {
		p = DefaultPolicy()
	}
	for _, s := range cfg.PositivePhrases {
		p.add(s, TagPositive)
	}
	for _, s := range cfg.FalsePositivePatterns {
		p.add(s, TagFalsePositive)
	}
	return p
}

func (p *Policy) add(text string, tag Tag) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return
	}
	p.phrases = append(p.phrases, Phrase{Text: text, Tag: tag})
}

// Phrases returns a copy of the table.
func (p Policy) Phrases() []Phrase {
	return append([]Phrase(nil), p.phrases...)
}

// Match returns the first row whose text occurs in the lowercased issue.
func (p Policy) Match(issue string) (Phrase, bool) {
	lower := strings.ToLower(issue)
	for _, ph := range p.phrases {
		if strings.Contains(lower, ph.Text) {
			return ph, true
		}
	}
	return Phrase{}, false
}

// Filter splits issues into those kept verbatim and those the table drops.
func (p Policy) Filter(issues []string) (kept, dropped []string) {
	for _, issue := range issues {
		if _, ok := p.Match(issue); ok {
			dropped = append(dropped, issue)
			continue
		}
		kept = append(kept, issue)
	}
	return kept, dropped
}
