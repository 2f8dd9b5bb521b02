// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import "strings"

// Topic is a keyword bucket a research question can fall into. The two
// halves trigger independently: expansion terms broaden recall, and
// preferred-source terms bias similarity toward the document most likely
// to answer. A broad word like "metrics" expands the query without
// pulling it toward a particular file.
type Topic struct {
	Name string

	// ExpansionTriggers are lowercase substrings that select Expansion.
	ExpansionTriggers []string
	Expansion         []string

	// SourceTriggers are lowercase substrings that select
	// PreferredSources. PreferredSources name the likely document first,
	// then its section vocabulary.
	SourceTriggers   []string
	PreferredSources []string
}

// Topics is the classification table, in query-expansion order.
var Topics = []Topic{
	{
		Name:              "feedback",
		ExpansionTriggers: []string{"client feedback", "improvement", "metrics"},
		Expansion:         []string{"feature requests", "priority", "improvement", "feedback", "metrics", "success metrics", "adoption rate", "daily active users"},
		SourceTriggers:    []string{"client feedback", "improvement request", "success metrics"},
		PreferredSources: []string{
			"client_feedback.md", "feature requests", "priority order", "metrics", "success",
			"user adoption rate", "daily active users", "session duration", "support tickets",
			"client success metrics",
		},
	},
	{
		Name:              "competitor",
		ExpansionTriggers: []string{"competitor", "competitive", "strategy"},
		Expansion:         []string{"competitor", "pricing", "positioning", "strength", "weakness", "recommendations"},
		SourceTriggers:    []string{"competitor", "competitive"},
		PreferredSources:  []string{"competitor_analysis.md", "competitors", "pricing", "positioning", "strengths", "weaknesses"},
	},
	{
		Name:              "risk",
		ExpansionTriggers: []string{"risk"},
		Expansion:         []string{"risk", "mitigation", "issue", "blocker"},
		SourceTriggers:    []string{"project document", "project report", "risk"},
		PreferredSources: []string{
			"project_report.md", "key risks", "risks", "integration risk", "security risk",
			"resource risk", "budget risk", "timeline risk",
		},
	},
	{
		Name:             "weekly-update",
		SourceTriggers:   []string{"weekly update", "this week", "next week"},
		PreferredSources: []string{"weekly_update.md", "progress this week", "next week plans"},
	},
	{
		Name:             "roadmap",
		SourceTriggers:   []string{"roadmap"},
		PreferredSources: []string{"q1_roadmap.md", "milestones", "planned", "in progress"},
	},
	{
		Name:           "technical",
		SourceTriggers: []string{"technical", "architecture", "security", "performance"},
		PreferredSources: []string{
			"technical_specs.md", "frontend", "backend", "infrastructure", "requirements",
			"React", "Node.js", "PostgreSQL", "API Response Time", "OAuth", "encryption",
		},
	},
	{
		Name:             "meeting",
		SourceTriggers:   []string{"meeting notes", "action item"},
		PreferredSources: []string{"meeting_notes.md", "action items"},
	},
}

// ExpandsFor reports whether question selects the topic's expansion terms.
func (t Topic) ExpandsFor(question string) bool {
	return containsAny(strings.ToLower(question), t.ExpansionTriggers)
}

// PrefersFor reports whether question selects the topic's preferred sources.
func (t Topic) PrefersFor(question string) bool {
	return containsAny(strings.ToLower(question), t.SourceTriggers)
}

// Classify returns the topics question selects through either trigger list.
func Classify(question string) []Topic {
	var out []Topic
	for _, t := range Topics {
		if t.ExpandsFor(question) || t.PrefersFor(question) {
			out = append(out, t)
		}
	}
	return out
}

// ExpandQuery appends the triggered expansion terms, then the triggered
// preferred-source terms, to question.
func ExpandQuery(question string) string {
	var extra []string
	for _, t := range Topics {
		if t.ExpandsFor(question) {
			extra = append(extra, t.Expansion...)
		}
	}
	for _, t := range Topics {
		if t.PrefersFor(question) {
			extra = append(extra, t.PreferredSources...)
		}
	}
	return question + "\n" + strings.Join(extra, " ")
}
