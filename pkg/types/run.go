// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the records shared by every pipeline stage: the run
// state threaded through a request, the facts it gathers, and configuration.
package types

import "strings"

// NotFoundMarker is the sentinel content of a research note whose question
// has no answer in the corpus.
const NotFoundMarker = "NOT FOUND IN SOURCES"

// Agent names the stage that produced a trace record.
type Agent string

const (
	AgentPlanner    Agent = "Planner"
	AgentResearcher Agent = "Researcher"
	AgentWriter     Agent = "Writer"
	AgentVerifier   Agent = "Verifier"
)

// Plan is the structured output of the planner.
type Plan struct {
	// Goal is the one-sentence objective.
	Goal string `json:"goal" yaml:"goal"`

	// Steps lists the ordered research steps with ordinals stripped.
	Steps []string `json:"steps" yaml:"steps"`

	// Questions lists the explicit research questions.
	Questions []string `json:"questions" yaml:"questions"`

	// OutputFormat names the requested deliverable (email, summary, ...).
	OutputFormat string `json:"output_format,omitempty" yaml:"output_format,omitempty"`

	// Raw is the generated plan text the fields were parsed from.
	Raw string `json:"raw" yaml:"raw"`
}

// IsEmpty reports whether the planner produced nothing at all.
func (p Plan) IsEmpty() bool {
	return strings.TrimSpace(p.Raw) == "" && len(p.Steps) == 0 && len(p.Questions) == 0
}

// Fact is one atomic research note.
type Fact struct {
	// Content is verbatim excerpt text or exactly NotFoundMarker.
	Content string `json:"content" yaml:"content"`

	// Source is the filename of the excerpt the fact came from. Empty when
	// the model gave no citation or the citation did not resolve.
	Source string `json:"source" yaml:"source"`

	// Snippet is the supporting quote the model attached to the source.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Relevance says which question the fact answers.
	Relevance string `json:"relevance" yaml:"relevance"`
}

// IsNotFound reports whether the fact records an unanswerable question.
func (f Fact) IsNotFound() bool {
	return f.Content == NotFoundMarker
}

// AllNotFound reports whether every note is a not-found note. An empty
// slice counts as all not-found.
func AllNotFound(notes []Fact) bool {
	for _, n := range notes {
		if !n.IsNotFound() {
			return false
		}
	}
	return true
}

// TraceRecord is an immutable log entry appended once per stage invocation.
type TraceRecord struct {
	Step    int    `json:"step" yaml:"step"`
	Agent   Agent  `json:"agent" yaml:"agent"`
	Action  string `json:"action" yaml:"action"`
	Outcome string `json:"outcome" yaml:"outcome"`
}

// VerificationStatus is the audit verdict token.
type VerificationStatus string

const (
	StatusPass             VerificationStatus = "PASS"
	StatusFail             VerificationStatus = "FAIL"
	StatusPassWithWarnings VerificationStatus = "PASS WITH WARNINGS"
	StatusUnknown          VerificationStatus = "UNKNOWN"
)

// Verification is the verifier's verdict on a draft.
type Verification struct {
	// Status is the token parsed from the model audit.
	Status VerificationStatus `json:"status" yaml:"status"`

	// Passed is true when no issues survived and the audit did not FAIL.
	Passed bool `json:"passed" yaml:"passed"`

	// Issues is the merged issue list shown to the user.
	Issues []string `json:"issues" yaml:"issues"`

	// ModelIssues are the audit issues that survived filtering.
	ModelIssues []string `json:"model_issues,omitempty" yaml:"model_issues,omitempty"`

	// RuleIssues are the deterministic rule findings.
	RuleIssues []string `json:"rule_issues,omitempty" yaml:"rule_issues,omitempty"`

	// Raw is the unparsed audit text.
	Raw string `json:"raw" yaml:"raw"`
}

// Excerpt is one retrieved chunk of a corpus document.
type Excerpt struct {
	Text   string  `json:"text" yaml:"text"`
	Source string  `json:"source" yaml:"source"`
	Score  float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// RunState is the shared state of one request. Stages never write it
// directly; they return deltas the orchestrator merges.
type RunState struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Request       string        `json:"request" yaml:"request"`
	Plan          *Plan         `json:"plan,omitempty" yaml:"plan,omitempty"`
	ResearchNotes []Fact        `json:"research_notes" yaml:"research_notes"`
	Chunks        int           `json:"chunks" yaml:"chunks"`
	Draft         string        `json:"draft" yaml:"draft"`
	Verification  *Verification `json:"verification,omitempty" yaml:"verification,omitempty"`
	FinalOutput   string        `json:"final_output" yaml:"final_output"`
	Trace         []TraceRecord `json:"trace" yaml:"trace"`
	StepCounter   int           `json:"step_counter" yaml:"step_counter"`
	Errors        []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Result is what a caller gets back from one pipeline run.
type Result struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	FinalOutput   string        `json:"final_output" yaml:"final_output"`
	Trace         []TraceRecord `json:"trace" yaml:"trace"`
	Plan          Plan          `json:"plan" yaml:"plan"`
	ResearchNotes []Fact        `json:"research_notes" yaml:"research_notes"`
	Verification  Verification  `json:"verification" yaml:"verification"`
	Errors        []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}
