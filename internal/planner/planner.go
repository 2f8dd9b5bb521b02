// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns a free-text request into a structured plan: a
// goal, ordered research steps, a deliverable format and the questions the
// researcher must answer from the corpus.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/groundwork/internal/llm"
	"github.com/pdiddy/groundwork/pkg/types"
)

const systemPrompt = `You are a Planning Agent in a multi-agent research system.

Your job is to analyze user requests and create a clear, step-by-step plan.

For each request, you must:
1. Understand what the user wants
2. Break it into specific, actionable steps
3. Identify what information needs to be researched
4. Determine the final output format needed

Output your plan in this exact format:

GOAL: <one sentence describing the main objective>

STEPS:
1. <first research step>
2. <second research step>
3. ...

OUTPUT FORMAT: <what the final deliverable should be: email, summary, action list, comparison, document>

RESEARCH QUESTIONS:
- <question 1 to find in documents>
- <question 2 to find in documents>
- ...

Be specific and actionable. Each step should be something the Research Agent can actually do.`

// Plan asks gen for a plan at temperature 0 and parses it.
func Plan(ctx context.Context, gen llm.Generator, request string) (types.Plan, error) {
	text, err := gen.Generate(ctx, llm.Request{System: systemPrompt, User: request})
	if err != nil {
		return types.Plan{}, fmt.Errorf("generating plan: %w", err)
	}
	return ParsePlan(text), nil
}

type section int

const (
	outside section = iota
	inSteps
	inQuestions
)

const (
	headerGoal      = "GOAL:"
	headerSteps     = "STEPS:"
	headerFormat    = "OUTPUT FORMAT:"
	headerQuestions = "RESEARCH QUESTIONS:"
)

var (
	// ordinalPattern matches a leading "1.", "2)", "3 -" or "4:".
	ordinalPattern = regexp.MustCompile(`^\d+\s*[.):\-]?\s*`)
	bulletPattern  = regexp.MustCompile(`^(?:[-*•]|\d+\s*[.)])\s*`)
)

// ParsePlan extracts plan fields from generated text. Missing sections
// leave their fields empty; a steps section without an OUTPUT FORMAT
// terminator runs to the next header or the end of the text.
func ParsePlan(text string) types.Plan {
	plan := types.Plan{Raw: text}
	state := outside

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if header, rest, ok := splitHeader(line); ok {
			switch header {
			case headerGoal:
				plan.Goal = rest
				state = outside
			case headerSteps:
				state = inSteps
			case headerFormat:
				plan.OutputFormat = rest
				state = outside
			case headerQuestions:
				state = inQuestions
			}
			continue
		}

		switch state {
		case inSteps:
			if line[0] >= '0' && line[0] <= '9' {
				if step := strings.TrimSpace(ordinalPattern.ReplaceAllString(line, "")); step != "" {
					plan.Steps = append(plan.Steps, step)
				}
			}
		case inQuestions:
			if loc := bulletPattern.FindStringIndex(line); loc != nil {
				if q := strings.TrimSpace(line[loc[1]:]); q != "" {
					plan.Questions = append(plan.Questions, q)
				}
			}
		}
	}
	return plan
}

// splitHeader recognizes a section header, tolerating markdown emphasis
// and case differences. It returns the canonical header and the text that
// follows it on the same line.
func splitHeader(line string) (string, string, bool) {
	norm := strings.TrimLeft(line, "#* ")
	upper := strings.ToUpper(norm)
	for _, h := range []string{headerGoal, headerSteps, headerFormat, headerQuestions} {
		if strings.HasPrefix(upper, h) {
			rest := strings.Trim(norm[len(h):], "* ")
			return h, rest, true
		}
	}
	return "", "", false
}
