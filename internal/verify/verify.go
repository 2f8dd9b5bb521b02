// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify audits a draft for grounding. A model audit against a
// fixed issue taxonomy is filtered through a phrase policy, merged with
// deterministic rule findings, and turned into a verdict. A failing draft
// is wrapped in a warnings banner, never rewritten.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/internal/metrics"
	"github.com/pdiddy/groundwork/pkg/types"
)

// Verifier holds the audit collaborator and the deterministic tables.
type Verifier struct {
	gen    llm.Generator
	policy Policy
	rules  Rules
	logger *zap.Logger
}

// New builds a Verifier from config.
func New(gen llm.Generator, cfg types.VerifierConfig, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{gen: gen, policy: NewPolicy(cfg), rules: NewRules(cfg), logger: logger}
}

// Input is what the verifier reads from the run.
type Input struct {
	Request string
	Notes   []types.Fact
	Draft   string
}

// Verify audits in.Draft and returns the verdict with the final output.
func (v *Verifier) Verify(ctx context.Context, in Input) (types.Verification, string, error) {
	prompt, err := renderPrompt(in)
	if err != nil {
		return types.Verification{}, "", fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := v.gen.Generate(ctx, llm.Request{System: systemPrompt, User: prompt})
	if err != nil {
		return types.Verification{}, "", fmt.Errorf("generating audit: %w", err)
	}

	audit := ParseAudit(raw)
	kept, dropped := v.policy.Filter(audit.Issues)
	for _, d := range dropped {
		v.logger.Debug("dropped audit issue", zap.String("issue", d))
	}

	findings := v.rules.Run(Subject{Request: in.Request, Draft: in.Draft, Notes: in.Notes})
	ruleIssues := make([]string, 0, len(findings))
	for _, f := range findings {
		metrics.RuleFirings.WithLabelValues(f.Rule).Inc()
		ruleIssues = append(ruleIssues, f.Issue)
	}

	issues := Merge(kept, ruleIssues)
	result := types.Verification{
		Status:      audit.Status,
		Passed:      Passed(audit.Status, issues),
		Issues:      issues,
		ModelIssues: kept,
		RuleIssues:  ruleIssues,
		Raw:         raw,
	}
	metrics.Verifications.WithLabelValues(string(result.Status)).Inc()

	v.logger.Info("verified draft",
		zap.String("status", string(result.Status)),
		zap.Bool("passed", result.Passed),
		zap.Int("model_issues", len(kept)),
		zap.Int("rule_issues", len(ruleIssues)))

	return result, Compose(in.Draft, result), nil
}

// Merge returns the model issues followed by the rule issues whose exact
// text is not already present.
func Merge(model, rules []string) []string {
	out := make([]string, 0, len(model)+len(rules))
	seen := make(map[string]bool, len(model)+len(rules))
	for _, s := range model {
		out = append(out, s)
		seen[s] = true
	}
	for _, s := range rules {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Passed is true only with no issues and an audit that did not FAIL.
func Passed(status types.VerificationStatus, issues []string) bool {
	return len(issues) == 0 && status != types.StatusFail
}

const (
	bannerHeader = "⚠️ VERIFICATION WARNINGS\nThe following issues were found:"
	disclaimer   = "Note: Some information may be incomplete or could not be fully verified against source documents."
)

// Compose returns the user-visible output: the draft itself, or the draft
// wrapped between a warnings banner and a disclaimer when verification
// failed with issues.
func Compose(draft string, v types.Verification) string {
	if v.Passed || len(v.Issues) == 0 {
		return draft
	}
	var b strings.Builder
	b.WriteString(bannerHeader)
	for _, issue := range v.Issues {
		b.WriteString("\n• ")
		b.WriteString(issue)
	}
	b.WriteString("\n\n---\n\n")
	b.WriteString(draft)
	b.WriteString("\n\n---\n\n")
	b.WriteString(disclaimer)
	return b.String()
}

var userPromptTmpl = template.Must(template.New("verify").Parse(`Please verify this draft against the research notes.

ORIGINAL REQUEST: {{.Request}}

RESEARCH NOTES:
{{.Notes}}

DRAFT TO VERIFY:
{{.Draft}}

Perform thorough verification and report all issues.`))

func renderPrompt(in Input) (string, error) {
	var buf bytes.Buffer
	err := userPromptTmpl.Execute(&buf, struct{ Request, Notes, Draft string }{in.Request, formatNotes(in.Notes), in.Draft})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatNotes(notes []types.Fact) string {
	if len(notes) == 0 {
		return "No research notes available."
	}
	parts := make([]string, 0, len(notes))
	for i, n := range notes {
		parts = append(parts, fmt.Sprintf("Note %d:\n- Finding: %s\n- Source: %s", i+1, n.Content, n.Source))
	}
	return strings.Join(parts, "\n\n")
}
