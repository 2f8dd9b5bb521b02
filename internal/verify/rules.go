// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/groundwork/internal/citation"
	"github.com/pdiddy/groundwork/pkg/types"
)

// Rule names, used as metric labels and in Finding.Rule.
const (
	RulePlaceholder     = "placeholder"
	RuleInvalidCitation = "invalid-citation"
	RuleVague           = "vague-phrasing"
	RuleExtraction      = "insufficient-extraction"
	RuleNoCitation      = "missing-citations"
	RuleRequiredSource  = "required-source"
)

// Subject is what the rules inspect.
type Subject struct {
	Request string
	Draft   string

	// Notes are the facts the draft was written from. Nil means unknown
	// and is treated like an all-not-found list.
	Notes []types.Fact
}

// Finding is one rule issue.
type Finding struct {
	Rule  string
	Issue string
}

// Rule is a named deterministic check. Check returns the issue text and
// whether the rule fired.
type Rule struct {
	Name  string
	Check func(Subject) (string, bool)
}

// Rules runs the deterministic checks in order. The placeholder check
// always runs; the rest are skipped when every note is not found and the
// draft is entirely a not-found response.
type Rules struct {
	always []Rule
	checks []Rule
}

var (
	listItemPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d+[.)])[ \t]+\S`)
	extractionPattern = regexp.MustCompile(`(?i)\b(?:extract|list|top|deadlines?|planned|milestones?)\b`)
)

// vagueMarkers signal a summary where concrete items were expected.
var vagueMarkers = []string{
	"various",
	"several items",
	"multiple items",
	"a number of",
	"among others",
	"and more",
	"and so on",
	"etc.",
	"some tasks",
	"other activities",
}

// DefaultRequiredSources is used when config names none.
func DefaultRequiredSources() []types.RequiredSourceRule {
	return []types.RequiredSourceRule{{
		Triggers: []string{"next week", "next-week", "upcoming week", "coming week"},
		Source:   "weekly_update.md",
		Label:    "next week's plans",
	}}
}

// NewRules builds the rule list. Required-source rows come from cfg, or
// DefaultRequiredSources when cfg has none.
func NewRules(cfg types.VerifierConfig) Rules {
	required := cfg.RequiredSources
	if len(required) == 0 {
		required = DefaultRequiredSources()
	}

	r := Rules{
		always: []Rule{{Name: RulePlaceholder, Check: checkPlaceholder}},
		checks: []Rule{
			{Name: RuleInvalidCitation, Check: checkInvalidCitation},
			{Name: RuleVague, Check: checkVague},
			{Name: RuleExtraction, Check: checkExtraction},
			{Name: RuleNoCitation, Check: checkNoCitation},
		},
	}
	for _, rs := range required {
		r.checks = append(r.checks, Rule{Name: RuleRequiredSource, Check: requiredSource(rs)})
	}
	return r
}

// Run applies every rule to s and returns the findings in rule order.
func (r Rules) Run(s Subject) []Finding {
	var out []Finding
	apply := func(rules []Rule) {
		for _, rule := range rules {
			if issue, ok := rule.Check(s); ok {
				out = append(out, Finding{Rule: rule.Name, Issue: issue})
			}
		}
	}

	apply(r.always)
	if types.AllNotFound(s.Notes) && EntirelyNotFound(s.Draft) {
		return out
	}
	apply(r.checks)
	return out
}

// EntirelyNotFound reports whether the draft only acknowledges missing
// information. Headings and horizontal rules are ignored; every other
// line must carry the not-found marker, except that one uncited line may
// follow each marker line as the suggestion for where to look.
func EntirelyNotFound(draft string) bool {
	seen, suggestion := false, false
	for _, line := range strings.Split(draft, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.Trim(line, "-*_ ") == "":
			continue
		case strings.Contains(strings.ToUpper(line), types.NotFoundMarker):
			seen, suggestion = true, true
		case suggestion && !citation.Has(line):
			suggestion = false
		default:
			return false
		}
	}
	return seen
}

// CountListItems counts bullet and numbered lines.
func CountListItems(text string) int {
	return len(listItemPattern.FindAllStringIndex(text, -1))
}

func checkPlaceholder(s Subject) (string, bool) {
	spans := citation.Placeholders(s.Draft)
	if len(spans) == 0 {
		return "", false
	}
	return fmt.Sprintf("Placeholder text found in draft: %s", spans[0]), true
}

func checkInvalidCitation(s Subject) (string, bool) {
	bad := citation.NullValues(s.Draft)
	if len(bad) == 0 {
		return "", false
	}
	return fmt.Sprintf("Invalid citation %s: citations must name a source document", bad[0]), true
}

func checkVague(s Subject) (string, bool) {
	lower := strings.ToLower(s.Draft)
	for _, m := range vagueMarkers {
		if strings.Contains(lower, m) && CountListItems(s.Draft) < 2 {
			return fmt.Sprintf("Vague phrasing (%q) without specific list items", m), true
		}
	}
	return "", false
}

func checkExtraction(s Subject) (string, bool) {
	if !extractionPattern.MatchString(s.Request) {
		return "", false
	}
	if n := CountListItems(s.Draft); n < 2 {
		return fmt.Sprintf("Request asks for specific items but the draft lists %d", n), true
	}
	return "", false
}

func checkNoCitation(s Subject) (string, bool) {
	if citation.Has(s.Draft) {
		return "", false
	}
	return "Draft contains no [Source: ...] citations", true
}

func requiredSource(rs types.RequiredSourceRule) func(Subject) (string, bool) {
	label := rs.Label
	if label == "" {
		label = strings.Join(rs.Triggers, "/")
	}
	return func(s Subject) (string, bool) {
		if !mentionsAny(s.Request, rs.Triggers) || citation.Cites(s.Draft, rs.Source) {
			return "", false
		}
		return fmt.Sprintf("Request asks about %s but the draft does not cite %s", label, rs.Source), true
	}
}

func mentionsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
